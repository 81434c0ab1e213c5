package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"medichat-go/pkg/log"
)

// OpenRedis connects a Redis client and verifies the connection.
func OpenRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
