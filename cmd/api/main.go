package main

import (
	"context"
	"fmt"
	"log"

	"linkup-chat/config"
	"linkup-chat/internal/domain"
	"linkup-chat/internal/handler"
	"linkup-chat/internal/repository"
	"linkup-chat/internal/server"
	"linkup-chat/internal/services"
	"linkup-chat/internal/storage"
	"linkup-chat/internal/store"
	"linkup-chat/pkg/database"
	"linkup-chat/pkg/events"
	"linkup-chat/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	defer l.Sync()
	logger.SetGlobal(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Message{},
		&domain.BlockStatus{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	broker := events.NewRedisBroker(
		fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		cfg.RedisPassword,
		cfg.RedisDB,
	)

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	blockRepo := repository.NewBlockStatusRepository(db)

	liveStore := store.NewLiveStore(messageRepo, blockRepo, broker, l)

	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	chatService := services.NewChatService(liveStore, userRepo, l)
	defer chatService.Shutdown()

	s3Client, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	uploadService := services.NewUploadService(s3Client)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:    handler.NewAuthHandler(authService, chatService),
		Users:   handler.NewUserHandler(userService),
		Chat:    handler.NewChatHandler(chatService, userService),
		Uploads: handler.NewUploadHandler(uploadService),
		WS:      server.NewWebSocketHandler(chatService, authService, l),
	}, authService)

	if err := srv.Start(); err != nil {
		l.Error("server exited with error", zap.Error(err))
	}
}
