package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/services"
)

type ChannelHandler struct {
	service services.ChannelService
}

func NewChannelHandler(service services.ChannelService) *ChannelHandler {
	return &ChannelHandler{service: service}
}

type createChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

// @Summary      Создать канал
// @Description  Создатель становится единственным участником с ролью owner
// @Tags         Channels
// @Accept       json
// @Produce      json
// @Param        channel  body      createChannelRequest  true  "Параметры канала"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /channels [post]
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.service.Create(c.Request.Context(), actor, req.Name, req.Description, req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Channel created successfully", "data": channel})
}

func (h *ChannelHandler) GetChannels(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channels, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": channels})
}

type addUserRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
}

func (h *ChannelHandler) AddUserToChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req addUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channelID, err := bson.ObjectIDFromHex(req.ChannelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channelId"})
		return
	}
	userID, err := bson.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	channel, serr := h.service.AddMember(c.Request.Context(), actor, channelID, userID)
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User added to channel successfully", "data": channel})
}

type removeUserRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *ChannelHandler) RemoveUserFromChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req removeUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := bson.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	if serr := h.service.RemoveMember(c.Request.Context(), actor, channelID, userID); serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed from channel successfully"})
}

func (h *ChannelHandler) ExitChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Exit(c.Request.Context(), actor, channelID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have successfully exited the channel"})
}

type assignRoleRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

func (h *ChannelHandler) AssignRole(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := bson.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	channel, serr := h.service.AssignRole(c.Request.Context(), actor, channelID, userID, req.Role)
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User assigned the role of " + req.Role + " successfully", "data": channel})
}

// UpdateChannelDetails принимает произвольный JSON: имена полей проверяет
// политика (whitelist), лишнее поле валит весь запрос.
func (h *ChannelHandler) UpdateChannelDetails(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	channel, err := h.service.UpdateDetails(c.Request.Context(), actor, channelID, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel updated successfully", "data": channel})
}

func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	channelID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, channelID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel deleted successfully"})
}
