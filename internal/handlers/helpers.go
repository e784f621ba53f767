package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
)

// actorID достаёт аутентифицированного пользователя из контекста запроса.
// Дальше по слоям он передаётся только явным аргументом.
func actorID(c *gin.Context) (bson.ObjectID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return bson.ObjectID{}, false
	}
	s, _ := v.(string)
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

func actorRole(c *gin.Context) authz.SiteRole {
	v, _ := c.Get("role")
	s, _ := v.(string)
	return authz.SiteRole(s)
}

// objectIDParam parses a path parameter as a document id.
func objectIDParam(c *gin.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return bson.ObjectID{}, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses. Internal causes
// are logged, never returned to the caller.
func respondError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.KindBadRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.KindNotModified:
		c.Status(http.StatusNotModified)
	default:
		log.Printf("[http] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
