// Package config loads and holds the application configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config mirrors the structure of configs/config.yaml. It is loaded once at
// startup and handed to component constructors; nothing in the core reads
// configuration ambiently.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	VectorStore VectorStoreConfig `mapstructure:"vectorstore"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Upload      UploadConfig      `mapstructure:"upload"`
	Chat        ChatConfig        `mapstructure:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DatabaseConfig groups the relational and cache database settings.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig holds the object storage settings for archived uploads.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// KafkaConfig holds the event publishing settings.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	Enabled bool   `mapstructure:"enabled"`
}

// VectorStoreConfig holds the Elasticsearch vector index settings.
type VectorStoreConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
	Dimension int    `mapstructure:"dimension"`
	TopK      int    `mapstructure:"top_k"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig holds the completion provider settings.
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig tunes completion generation. Zero values mean
// provider defaults.
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// UploadConfig bounds the document ingestion pipeline.
type UploadConfig struct {
	MaxFileSize      int64 `mapstructure:"max_file_size"`
	ChunkSize        int   `mapstructure:"chunk_size"`
	ChunkOverlap     int   `mapstructure:"chunk_overlap"`
	ProcessTimeoutMs int   `mapstructure:"process_timeout_ms"`
}

// ChatConfig bounds the chat pipeline.
type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// Load reads the YAML file at configPath and unmarshals it, filling in the
// defaults the pipeline depends on.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	// An explicit chunk_overlap of 0 is valid, so the default lives here
	// rather than in applyDefaults.
	v.SetDefault("upload.chunk_overlap", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.VectorStore.Dimension <= 0 {
		cfg.VectorStore.Dimension = 1536
	}
	if cfg.VectorStore.TopK <= 0 {
		cfg.VectorStore.TopK = 3
	}
	if cfg.Embedding.Dimensions <= 0 {
		cfg.Embedding.Dimensions = cfg.VectorStore.Dimension
	}
	if cfg.Upload.MaxFileSize <= 0 {
		cfg.Upload.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.Upload.ChunkSize <= 0 {
		cfg.Upload.ChunkSize = 1000
	}
	if cfg.Upload.ChunkOverlap < 0 {
		cfg.Upload.ChunkOverlap = 0
	}
	if cfg.Upload.ProcessTimeoutMs <= 0 {
		cfg.Upload.ProcessTimeoutMs = 5 * 60 * 1000
	}
	if cfg.Chat.HistoryLimit <= 0 {
		cfg.Chat.HistoryLimit = 20
	}
}
