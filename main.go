package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/phillip/campus-events-go/config"
	middleware "github.com/phillip/campus-events-go/middleware"
	repositories "github.com/phillip/campus-events-go/repositories"
	routes "github.com/phillip/campus-events-go/routes"
	services "github.com/phillip/campus-events-go/services"
	utils "github.com/phillip/campus-events-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	cfg.Logger = logger

	client, err := config.ConnectMongo(context.Background(), cfg.MongoURI)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	cfg.MongoClient = client
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	logger.Info("database connected", zap.String("db", cfg.DBName))

	uploader, err := utils.NewCloudinaryUploader(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.CloudinaryFolder,
	)
	if err != nil {
		logger.Fatal("media uploader", zap.Error(err))
	}

	db := client.Database(cfg.DBName)
	eventService := services.NewEventService(
		repositories.NewEventRepository(db, cfg.RequestTimeout),
		repositories.NewUserRepository(db, cfg.RequestTimeout),
		repositories.NewRatingRepository(db, cfg.RequestTimeout),
		uploader,
		logger,
	)

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	routes.SetupRoutes(r, cfg, eventService)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
