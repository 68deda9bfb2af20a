package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shutterboard/backend/internal/database"
	"github.com/shutterboard/backend/internal/handlers"
	"github.com/shutterboard/backend/internal/middleware"
	"github.com/shutterboard/backend/internal/storage"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Bootstrap the schema, then hand the connection over to the ORM layer
	bootstrap, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := bootstrap.Initialize(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	bootstrap.Close()

	dbService := database.New()

	store := storage.New(storage.DefaultConfig(), uploadDir(), os.Getenv("PUBLIC_BASE_URL"))

	handler := handlers.NewHandler(dbService.GetDB(), store)

	newServer := &Server{
		db:      dbService,
		handler: handler,
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
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
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

	// Uploaded images are served by their public URL
	r.Static("/images", uploadDir())

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/register", s.handler.Auth.Register)
		api.POST("/auth/login", s.handler.Auth.Login)
		api.GET("/auth/session", s.handler.Auth.Session)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/user/:id", s.handler.Post.GetUserPosts)
		api.POST("/posts/search", s.handler.Post.SearchPosts)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUser)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/auth/logout", s.handler.Auth.Logout)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.POST("/comments/:commentId/vote", s.handler.Comment.VoteComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)

			protected.POST("/users/:id", s.handler.User.UpdateUser)
			protected.DELETE("/users", s.handler.User.DeleteUser)
		}
	}

	return r
}

func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "./images"
}
