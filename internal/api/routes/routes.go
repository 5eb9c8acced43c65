package routes

import (
	"realtime-service/internal/api/handlers"
	"realtime-service/internal/api/middleware"
	"realtime-service/internal/config"
	"realtime-service/internal/realtime"
	"realtime-service/internal/repositories/postgres"
	"realtime-service/internal/services"
	"realtime-service/internal/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	engine              *gin.Engine
	wsHandler           *realtime.Handler
	authHandler         *handlers.AuthHandler
	notificationHandler *handlers.NotificationHandler
	communityHandler    *handlers.CommunityHandler
	authMW              *middleware.AuthMiddleware
}

func NewRouter(
	cfg *config.Config,
	db *gorm.DB,
	sessions *session.Store,
	chat *realtime.ChatChannel,
	notifications *realtime.NotificationChannel,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	communityRepo := postgres.NewCommunityRepository(db)

	// Services
	userService := services.NewUserService(userRepo, sessions)
	notificationService := services.NewNotificationService(
		notificationRepo, userRepo, notifications, cfg.Notify.PersistTimeout)
	communityService := services.NewCommunityService(communityRepo, userRepo, notificationService)

	return &Router{
		engine:              engine,
		wsHandler:           realtime.NewHandler(sessions, userService, chat, notifications),
		authHandler:         handlers.NewAuthHandler(userService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		communityHandler:    handlers.NewCommunityHandler(communityService),
		authMW:              middleware.NewAuthMiddleware(sessions),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api")

	// Websocket endpoints resolve the session themselves during the
	// handshake, before the upgrade; no REST middleware runs here.
	api.GET("/ws/chat", r.wsHandler.ServeChat)
	api.GET("/ws/notifications", r.wsHandler.ServeNotifications)

	auth := api.Group("/auth")
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/logout", r.authMW.RequireSession(), r.authHandler.Logout)
	}

	authed := api.Group("/")
	authed.Use(r.authMW.RequireSession())
	{
		authed.GET("/users/profile", r.authHandler.GetProfile)
		authed.POST("/users/:id/follow", r.communityHandler.Follow)

		authed.GET("/notifications", r.notificationHandler.List)
		authed.PATCH("/notifications/:id/read", r.notificationHandler.MarkRead)

		authed.GET("/posts", r.communityHandler.ListPosts)
		authed.POST("/posts", r.communityHandler.CreatePost)
		authed.POST("/posts/:id/comments", r.communityHandler.CreateComment)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
