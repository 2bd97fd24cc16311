package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/middleware"
	"garage-chat/internal/realtime"
	"garage-chat/internal/relay"
	"garage-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	pflag.Parse()

	// =========================================================================
	// Load configuration
	// =========================================================================
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Khởi tạo Logger
	// =========================================================================
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "relay")
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting relay",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("path", cfg.Relay.Path),
	)

	// =========================================================================
	// Mirror publisher (Centrifugo)
	// =========================================================================
	var publisher realtime.Publisher
	if cfg.Centrifugo.Enabled() {
		publisher = realtime.NewCentrifugoClient(cfg.Centrifugo.URL, cfg.Centrifugo.APIKey, cfg.Centrifugo.Channel, log)
		log.Info("centrifugo mirror enabled",
			zap.String("url", cfg.Centrifugo.URL),
			zap.String("channel", cfg.Centrifugo.Channel),
		)
	} else {
		publisher = realtime.NewNoopPublisher()
		log.Info("centrifugo not configured, mirror disabled")
	}

	// =========================================================================
	// Hub
	// =========================================================================
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(publisher, log)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	// =========================================================================
	// Thiết lập Gin Router
	// =========================================================================
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS(cfg.Relay.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.App.Name,
			"clients": hub.Count(),
		})
	})

	api := router.Group("/api/v1")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	relayHandler := relay.NewHandler(hub, cfg.Relay, log)
	relayHandler.RegisterRoutes(router, api)

	log.Info("routes registered",
		zap.Strings("endpoints", []string{"/health", "/api/v1/ping", "/api/v1/relay/stats", cfg.Relay.Path}),
	)

	// =========================================================================
	// Khởi động HTTP Server
	// =========================================================================
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.App.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("relay listening", zap.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	<-ctx.Done()
	log.Info("shutting down relay...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// hub dừng trước để đóng mọi websocket, Shutdown không chờ connection đã hijack
	<-hubDone
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("relay exited", zap.Uint64("relayed_messages", hub.Stats().RelayedMessages))
}
