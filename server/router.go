package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"social-hub/domain/repository"
	"social-hub/infrastructure/realtime"
	httpHandler "social-hub/interfaces/http"
	"social-hub/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	healthHandler httpHandler.IHealthHandler,
	connectHandler httpHandler.IConnectHandler,
	analyticsHandler httpHandler.IAnalyticsHandler,
	publishHandler httpHandler.IPublishHandler,
	webhookHandler httpHandler.IWebhookHandler,
	userRepository repository.IUser,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", healthHandler.Healthz)

	// OAuth callbacks arrive unauthenticated; identity travels in the state.
	router.GET("/auth/:platform/callback", connectHandler.Callback)

	// Provider webhook endpoints are unauthenticated by nature; the handshake
	// and payload signatures are the gate.
	router.GET("/webhooks/:platform", webhookHandler.Verify)
	router.POST("/webhooks/:platform", webhookHandler.Receive)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	api.GET("/auth/:platform", connectHandler.Initiate)

	api.GET("/channels", connectHandler.ListChannels)
	api.DELETE("/channels/:channelId", connectHandler.Disconnect)
	api.POST("/channels/:channelId/refresh-token", connectHandler.RefreshToken)
	api.GET("/channels/:channelId/analytics", analyticsHandler.GetChannelAnalytics)
	api.POST("/channels/:channelId/publish", publishHandler.Publish)

	api.GET("/analytics", analyticsHandler.GetAllAnalytics)

	api.GET("/posts", publishHandler.GetRecentPosts)
	api.GET("/posts/:postId", publishHandler.GetPost)

	api.POST("/webhooks/subscribe", webhookHandler.Subscribe)
	api.POST("/webhooks/unsubscribe", webhookHandler.Unsubscribe)
	api.GET("/webhooks/status", webhookHandler.Status)
	api.POST("/webhooks/setup", webhookHandler.Setup)

	// Live publish status stream (SSE), scoped to the caller's organization.
	if publishHub != nil {
		api.GET("/events", publishHub.Serve)
	}

	return router
}
