package routes

import (
	"github.com/gin-gonic/gin"

	"backchannel/internal/authz"
	"backchannel/internal/handlers"
	"backchannel/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	channelHandler *handlers.ChannelHandler,
	conversationHandler *handlers.ConversationHandler,
	messageHandler *handlers.MessageHandler,
) *gin.Engine {

	// ---- public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/forgotpassword", authHandler.ForgotPassword)
	r.POST("/resetpassword/:token", authHandler.ResetPassword)

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtSecret))

	r.PATCH("/updatepassword", authHandler.UpdatePassword)

	// USERS (список — только для mod/admin)
	users := r.Group("/users")
	{
		users.GET("/", middleware.RequireRoles(authz.SiteMod, authz.SiteAdmin), userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUserByID)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// CHANNELS
	channels := r.Group("/channels")
	{
		channels.POST("/", channelHandler.CreateChannel)
		channels.GET("/", channelHandler.GetChannels)
		channels.POST("/addUser", channelHandler.AddUserToChannel)
		channels.DELETE("/:id", channelHandler.DeleteChannel)
		channels.PATCH("/:id", channelHandler.UpdateChannelDetails)
		channels.POST("/:id/assignRole", channelHandler.AssignRole)
		channels.DELETE("/:id/exit", channelHandler.ExitChannel)
		channels.DELETE("/:id/removeUser", channelHandler.RemoveUserFromChannel)
	}

	// CONVERSATIONS
	conversations := r.Group("/conversations")
	{
		conversations.POST("/create", conversationHandler.CreateConversation)
		conversations.GET("/", conversationHandler.GetConversations)
		conversations.POST("/sendMessage", conversationHandler.SendMessage)
		conversations.GET("/:conversationId/messages", conversationHandler.GetMessages)
		conversations.PATCH("/editMessage/:messageId", conversationHandler.EditMessage)
		conversations.DELETE("/deleteMessage/:messageId", conversationHandler.DeleteMessage)
		conversations.DELETE("/:conversationId", conversationHandler.DeleteConversation)
	}

	// MESSAGES (каналы + bulk markAsRead)
	messages := r.Group("/messages")
	{
		messages.POST("/:channelId", messageHandler.SendMessageInChannel)
		messages.GET("/:channelId", messageHandler.GetMessagesByChannel)
		messages.PATCH("/:messageId", messageHandler.EditMessage)
		messages.DELETE("/:messageId", messageHandler.DeleteMessage)
		messages.PATCH("/marking/markAsRead", messageHandler.MarkMessagesAsRead)
	}

	return r
}
