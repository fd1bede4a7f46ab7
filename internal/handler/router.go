package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdock/helpdock/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Content       *ContentHandler
	Chat          *ChatHandler
	JWTSecret     []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/login", deps.Auth.Login)

	chatGroup := api.Group("")
	chatGroup.Use(middleware.RateLimit(deps.ChatRateLimit))
	chatGroup.POST("/chat", deps.Chat.Chat)

	adminGroup := api.Group("")
	adminGroup.Use(middleware.AdminAuth(deps.JWTSecret))
	adminGroup.GET("/content", deps.Content.List)
	adminGroup.POST("/content/urls", deps.Content.CreateURL)
	adminGroup.POST("/content/documents", deps.Content.UploadDocument)
	adminGroup.DELETE("/content", deps.Content.Delete)
}
