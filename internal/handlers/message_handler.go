package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/models"
	"backchannel/internal/services"
)

type MessageHandler struct {
	service services.MessageService
}

func NewMessageHandler(service services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type sendMessageRequest struct {
	Content     string              `json:"content" binding:"required"`
	Attachments []models.Attachment `json:"attachments"`
}

func (h *MessageHandler) SendMessageInChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "channelId")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.SendToChannel(c.Request.Context(), actor, channelID, req.Content, req.Attachments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "data": message})
}

// GetMessagesByChannel отдаёт историю канала (createdAt по возрастанию) и
// попутно помечает все сообщения прочитанными текущим пользователем.
func (h *MessageHandler) GetMessagesByChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "channelId")
	if !ok {
		return
	}

	messages, err := h.service.ChannelMessages(c.Request.Context(), actor, channelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *MessageHandler) EditMessage(c *gin.Context) {
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

	message, err := h.service.Edit(c.Request.Context(), actor, messageID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message updated successfully", "data": message})
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	messageID, ok := objectIDParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

type markAsReadRequest struct {
	MessageID  string   `json:"messageId"`
	MessageIDs []string `json:"messageIds"`
}

// MarkMessagesAsRead: один id или пачка; повторная пометка — no-op (304).
func (h *MessageHandler) MarkMessagesAsRead(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req markAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw := req.MessageIDs
	if req.MessageID != "" {
		raw = append([]string{req.MessageID}, raw...)
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a messageId or an array of messageIds"})
		return
	}
	ids := make([]bson.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := bson.ObjectIDFromHex(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id " + s})
			return
		}
		ids = append(ids, id)
	}

	n, err := h.service.MarkRead(c.Request.Context(), actor, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read successfully", "modified": n})
}
