// Package server owns the HTTP surface: the gin engine, route wiring, the
// WebSocket update stream, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkup-chat/config"
	"linkup-chat/internal/handler"
	"linkup-chat/internal/middleware"
	"linkup-chat/internal/services"
	"linkup-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *zap.Logger
}

type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Chat    *handler.ChatHandler
	Uploads *handler.UploadHandler
	WS      *WebSocketHandler
}

func New(cfg *config.Config, logger *zap.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.AuthMiddleware(authService), handlers.Auth.Logout)
	}

	users := s.engine.Group("/v1/users", middleware.AuthMiddleware(authService))
	{
		users.GET("/me", handlers.Users.Me)
		users.GET("/peers", handlers.Users.Peers)
	}

	chat := s.engine.Group("/v1/chat", middleware.AuthMiddleware(authService))
	{
		chat.POST("/open", handlers.Chat.Open)
		chat.POST("/close", handlers.Chat.Close)
		chat.POST("/messages", handlers.Chat.Send)
		chat.PUT("/block", handlers.Chat.SetBlocked)
		chat.GET("/unread", handlers.Chat.Unread)
		chat.POST("/unread/clear", handlers.Chat.ClearUnread)
	}

	uploads := s.engine.Group("/v1/uploads", middleware.AuthMiddleware(authService))
	{
		uploads.POST("", handlers.Uploads.Create)
	}

	// Token rides the query string here; browsers cannot set headers on a
	// WebSocket upgrade.
	s.engine.GET("/v1/ws", handlers.WS.Handle)
}

func (s *Server) Start() error {
	go func() {
		s.logger.Info("starting server", zap.String("port", s.config.AppPort))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	s.logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
