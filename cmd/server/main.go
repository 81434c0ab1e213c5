// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"medichat-go/internal/config"
	"medichat-go/internal/handler"
	"medichat-go/internal/middleware"
	"medichat-go/internal/model"
	"medichat-go/internal/repository"
	"medichat-go/internal/service"
	"medichat-go/pkg/database"
	"medichat-go/pkg/embedding"
	"medichat-go/pkg/events"
	"medichat-go/pkg/llm"
	"medichat-go/pkg/log"
	"medichat-go/pkg/pdf"
	"medichat-go/pkg/storage"
	"medichat-go/pkg/vectorstore"
)

func main() {
	configPath := "./configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	db, err := database.OpenMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to connect to mysql: %v", err)
	}
	if err := db.AutoMigrate(&model.DocumentUpload{}, &model.DocumentChunk{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	rdb, err := database.OpenRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	archive, err := storage.NewArchive(cfg.MinIO)
	if err != nil {
		// Archival is best effort; run without it.
		log.Warnf("object storage unavailable, originals will not be archived: %v", err)
		archive = nil
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	var store vectorstore.Store
	store, err = vectorstore.NewElasticsearch(cfg.VectorStore)
	if err != nil {
		log.Warnf("elasticsearch unavailable, falling back to in-memory vector store: %v", err)
		store = vectorstore.NewMemory(cfg.VectorStore.Dimension)
	}

	documentRepo := repository.NewDocumentRepository(db)
	conversationRepo := repository.NewConversationRepository(rdb, cfg.Chat.HistoryLimit)

	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	extractor := pdf.NewExtractor()

	retrievalService := service.NewRetrievalService(store, cfg.VectorStore.TopK)
	chatService := service.NewChatService(embeddingClient, llmClient, retrievalService, conversationRepo, publisher)
	uploadService := service.NewUploadService(cfg.Upload, extractor, embeddingClient, store, documentRepo, archive, publisher)

	chatHandler := handler.NewChatHandler(chatService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	documentHandler := handler.NewDocumentHandler(uploadService)
	healthHandler := handler.NewHealthHandler(store)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/health", healthHandler.Health)
	r.GET("/chat/ws", chatHandler.Websocket)

	apiV1 := r.Group("/api/v1")
	{
		chat := apiV1.Group("/chat")
		{
			chat.POST("/ai-response", chatHandler.AIResponse)
			chat.GET("/history", chatHandler.History)
		}

		upload := apiV1.Group("/upload")
		{
			upload.POST("/pdf", uploadHandler.UploadPDF)
			upload.GET("/stats", uploadHandler.Stats)
		}

		documents := apiV1.Group("/documents")
		{
			documents.GET("", documentHandler.List)
			documents.DELETE("/:id", documentHandler.Delete)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("http server shutdown failed: %v", err)
	}
	log.Info("server stopped")
}
