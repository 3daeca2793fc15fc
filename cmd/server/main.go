package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collaborative-canvas/internal/board"
	"collaborative-canvas/internal/config"
	"collaborative-canvas/internal/db"
	"collaborative-canvas/internal/middleware"
	"collaborative-canvas/internal/realtime"
	"collaborative-canvas/internal/user"
	"collaborative-canvas/internal/worker"
	"collaborative-canvas/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	config.LoadConfig()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.AppConfig.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData()
	}

	// Presence store: Redis when available, in-memory fallback otherwise
	var store realtime.Store
	if client := redis.InitRedis(); client != nil {
		store = realtime.NewRedisStore(client)
	} else {
		store = realtime.NewMemoryStore()
	}

	// Background workers for event-log appends and pub/sub fan-out
	pool := worker.NewPool(4, 1000)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	boardRepo := board.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	boardService := board.NewService(boardRepo)

	hub := realtime.NewHub()
	roomService := realtime.NewRoomService(hub, store, boardRepo)
	cursorService := realtime.NewCursorService(hub, store)
	elementService := realtime.NewElementService(hub, store, boardRepo, boardRepo, pool)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	boardHandler := board.NewHandler(boardService)
	wsHandler := realtime.NewHandler(roomService, cursorService, elementService)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}
	if config.AppConfig.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// Auth routes
	router.POST("/api/auth/register", userHandler.Register)
	router.POST("/api/auth/login", userHandler.Login)
	router.GET("/api/auth/profile", middleware.AuthMiddleware(), userHandler.GetProfile)

	// Board routes
	boards := router.Group("/api/boards", middleware.AuthMiddleware())
	boards.GET("", boardHandler.List)
	boards.POST("", boardHandler.Create)
	boards.GET("/:id", boardHandler.Show)
	boards.PATCH("/:id", boardHandler.Update)
	boards.DELETE("/:id", boardHandler.Delete)
	boards.GET("/:id/elements", boardHandler.ListElements)
	boards.GET("/:id/collaborators", boardHandler.ListCollaborators)
	boards.POST("/:id/collaborators", boardHandler.AddCollaborator)
	boards.DELETE("/:id/collaborators/:userId", boardHandler.RemoveCollaborator)

	// Realtime channel (token handshake happens inside)
	router.GET("/ws", wsHandler.Serve)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Info().Str("port", serverPort).Msg("Server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
}
