package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/services"
)

type ConversationHandler struct {
	service  services.ConversationService
	messages services.MessageService
}

func NewConversationHandler(service services.ConversationService, messages services.MessageService) *ConversationHandler {
	return &ConversationHandler{service: service, messages: messages}
}

type createConversationRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	participantID, err := bson.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participantId"})
		return
	}

	conversation, serr := h.service.Create(c.Request.Context(), actor, participantID)
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Conversation created successfully", "data": conversation})
}

func (h *ConversationHandler) GetConversations(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	conversations, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": conversations})
}

func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	conversationID, ok := objectIDParam(c, "conversationId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, conversationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted successfully"})
}

type conversationMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req conversationMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conversationID, err := bson.ObjectIDFromHex(req.ConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversationId"})
		return
	}

	message, serr := h.messages.SendToConversation(c.Request.Context(), actor, conversationID, req.Content, nil)
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "data": message})
}

func (h *ConversationHandler) GetMessages(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	conversationID, ok := objectIDParam(c, "conversationId")
	if !ok {
		return
	}
	messages, err := h.messages.ConversationMessages(c.Request.Context(), actor, conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func (h *ConversationHandler) EditMessage(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	messageID, ok := objectIDParam(c, "messageId")
	if !ok {
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	message, err := h.messages.Edit(c.Request.Context(), actor, messageID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message edited successfully", "data": message})
}

func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	messageID, ok := objectIDParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), actor, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
