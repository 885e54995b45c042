package server

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/buildfeed/backend/internal/database"
	"github.com/buildfeed/backend/internal/feed"
	"github.com/buildfeed/backend/internal/handlers"
	"github.com/buildfeed/backend/internal/middleware"
	"github.com/buildfeed/backend/internal/webhooks"
)

type Server struct {
	db         database.Service
	dispatcher *webhooks.Dispatcher
	handler    *handlers.Handler
}

// NewServer wires the database, the delivery worker pool, the feed service,
// and the HTTP handlers, and returns the configured http.Server alongside
// the Server for lifecycle control.
func NewServer() (*http.Server, *Server) {
	dbService := database.New()
	gormDB := dbService.GetDB()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	dispatcher := webhooks.NewDispatcher(
		webhooks.NewGormStore(gormDB),
		logger.With().Str("component", "webhooks").Logger(),
		webhooks.Config{
			Workers: envInt("WEBHOOK_WORKERS"),
			Timeout: time.Duration(envInt("WEBHOOK_TIMEOUT_SECONDS")) * time.Second,
		},
	)

	svc := feed.NewService(gormDB, dispatcher, logger.With().Str("component", "feed").Logger())

	newServer := &Server{
		db:         dbService,
		dispatcher: dispatcher,
		handler:    handlers.NewHandler(gormDB, svc),
	}

	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)

	return server, newServer
}

// StartWorkers launches the webhook delivery pool.
func (s *Server) StartWorkers() {
	s.dispatcher.Start()
}

// StopWorkers drains in-flight deliveries and closes the database.
func (s *Server) StopWorkers() {
	s.dispatcher.Stop()
	if err := s.db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/followers", s.handler.User.GetFollowers)
		api.GET("/users/:id/following", s.handler.User.GetFollowing)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/timeline", s.handler.Post.GetTimeline)

			// Post protected routes
			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Vote.CastVote)
			protected.DELETE("/posts/:id/vote", s.handler.Vote.RemoveVote)

			// User protected routes
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
			protected.POST("/users/:id/follow", s.handler.User.FollowUser)
			protected.DELETE("/users/:id/follow", s.handler.User.UnfollowUser)

			// Notification routes
			protected.GET("/notifications", s.handler.Notification.GetNotifications)
			protected.POST("/notifications/:id/read", s.handler.Notification.MarkRead)

			// Webhook management routes
			protected.POST("/webhooks", s.handler.Webhook.CreateWebhook)
			protected.GET("/webhooks", s.handler.Webhook.GetWebhooks)
			protected.PATCH("/webhooks/:id", s.handler.Webhook.UpdateWebhook)
			protected.DELETE("/webhooks/:id", s.handler.Webhook.DeleteWebhook)
		}
	}

	return r
}

func envInt(name string) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return v
}
