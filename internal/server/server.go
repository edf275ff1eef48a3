package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/threadnest/api/internal/cache"
	"github.com/threadnest/api/internal/config"
	"github.com/threadnest/api/internal/handler"
	"github.com/threadnest/api/internal/middleware"
	"github.com/threadnest/api/internal/repository"
	"github.com/threadnest/api/internal/service"
	"github.com/threadnest/api/pkg/storage"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, imageStorage storage.ImageStorage) *Server {
	threadRepo := repository.NewThreadRepository(db)
	userRepo := repository.NewUserRepository(db)
	communityRepo := repository.NewCommunityRepository(db)

	var searchIndex service.SearchIndex
	if cfg.MeiliMasterKey != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchIndex = service.NewMeiliSearchService(meiliClient)
	}

	pages := cache.NewPages(redisClient, cfg.PageCacheTTL)

	threadSvc := service.NewThreadService(threadRepo, userRepo, communityRepo, searchIndex, pages, redisClient, cfg.RateLimitPost)
	threadHandler := handler.NewThreadHandler(threadSvc, cfg.FeedPageSize)

	userSvc := service.NewUserService(userRepo, threadRepo, searchIndex, pages)
	userHandler := handler.NewUserHandler(userSvc, imageStorage)

	communitySvc := service.NewCommunityService(communityRepo)
	communityHandler := handler.NewCommunityHandler(communitySvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	identity := middleware.NewIdentityMiddleware(cfg.JWTSecret)

	api := router.Group("/api")
	api.Use(identity.RequireIdentity())
	api.Use(middleware.PageCache(pages))
	{
		api.POST("/threads", threadHandler.CreateThread)
		api.GET("/threads", threadHandler.GetFeed)
		api.GET("/threads/:id", threadHandler.GetThreadByID)
		api.POST("/threads/:id/comments", threadHandler.AddComment)

		api.PUT("/users", userHandler.UpdateProfile)
		api.GET("/users/:id", userHandler.GetUser)
		api.GET("/users/:id/threads", userHandler.GetUserPosts)
		api.GET("/users/:id/activity", userHandler.GetActivity)
		api.POST("/users/avatar", userHandler.UploadAvatar)

		api.GET("/communities", communityHandler.GetCommunities)
		api.GET("/communities/:id", communityHandler.GetCommunityDetails)
		api.GET("/communities/:id/threads", communityHandler.GetCommunityPosts)

		api.GET("/search/threads", threadHandler.SearchThreads)
		api.GET("/search/users", userHandler.SearchUsers)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
