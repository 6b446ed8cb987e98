package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/forumhub/backend/internal/database"
	"github.com/forumhub/backend/internal/handlers"
	"github.com/forumhub/backend/internal/middleware"
	"github.com/forumhub/backend/internal/ratelimit"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	limiter *ratelimit.Limiter
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB())

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
		limiter: newLimiter(),
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
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

// newLimiter picks the rate-limit counter store: Redis when REDIS_ADDR is
// set (shared across replicas), an in-process map otherwise. Limit state is
// ephemeral either way; a restart simply opens fresh windows.
func newLimiter() *ratelimit.Limiter {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		log.Printf("✅ Rate limiting backed by Redis at %s", addr)
		return ratelimit.New(ratelimit.NewRedisStore(client), nil)
	}
	return ratelimit.New(ratelimit.NewMemoryStore(), nil)
}

// limit applies a named rate-limit policy, unless limiting is disabled for
// local development.
func (s *Server) limit(action string) gin.HandlerFunc {
	if os.Getenv("RATE_LIMIT_DISABLED") == "true" {
		return func(c *gin.Context) { c.Next() }
	}
	return ratelimit.Middleware(s.limiter, action)
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
		api.GET("/search", s.limit("search"), s.handler.Post.SearchPosts)

		// Comment routes (public reads)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/posts", s.handler.Post.GetUserPosts)
		api.GET("/users/:id/followers", s.handler.User.GetFollowers)
		api.GET("/users/:id/following", s.handler.User.GetFollowing)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth protected routes
			protected.GET("/me", s.handler.Auth.GetMe)

			// Post protected routes
			protected.POST("/posts", s.limit("post-create"), s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.limit("vote"), s.handler.Post.VotePost)

			// Comment protected routes
			protected.POST("/posts/:id/comments", s.limit("comment-create"), s.handler.Comment.CreateComment)
			protected.POST("/comments/:commentId/upvote", s.limit("vote"), s.handler.Comment.UpvoteComment)
			protected.POST("/comments/:commentId/downvote", s.limit("vote"), s.handler.Comment.DownvoteComment)
			protected.PUT("/comments/:commentId", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)

			// User protected routes
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
			protected.POST("/users/:id/follow", s.handler.User.FollowUser)
			protected.DELETE("/users/:id/follow", s.handler.User.UnfollowUser)
		}
	}

	return r
}
