package router

import (
	"github.com/labstack/echo/v4"

	"lapakchat/internal/adapter/api/handler"
	"lapakchat/internal/adapter/api/middleware"
)

// SetupMessagingRouter registers the conversation endpoints. Everything
// requires authentication.
func SetupMessagingRouter(e *echo.Echo, messagingHandler *handler.MessagingHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	group.POST("", messagingHandler.StartConversation)
	group.GET("", messagingHandler.ListConversations)
	group.GET("/unread-counts", messagingHandler.UnreadCounts)
	group.GET("/:id", messagingHandler.GetConversation)
	group.DELETE("/:id", messagingHandler.DeactivateConversation)

	group.POST("/:id/messages", messagingHandler.SendMessage)
	group.GET("/:id/messages", messagingHandler.ListMessages)
	group.PUT("/:id/read", messagingHandler.MarkRead)
	group.GET("/:id/unread-count", messagingHandler.UnreadCount)
}
