package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"backchannel/internal/middleware"
	"backchannel/internal/models"
	"backchannel/internal/services"
	"backchannel/internal/utils"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService, jwtSecret: jwtSecret}
}

func (h *AuthHandler) signAccessToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID.Hex(),
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// @Summary      Регистрация
// @Description  Создаёт аккаунт и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      registerRequest  true  "Данные аккаунта"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	accessToken, err := h.signAccessToken(user)
	if err != nil {
		log.Printf("[auth][register] sign access token failed for userID=%s: err=%v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    user,
		"tokens":  gin.H{"access_token": accessToken},
	})
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)

	user, err := h.userService.GetByEmail(c.Request.Context(), email)
	if err != nil || user == nil {
		log.Printf("[auth][login] user not found by email=%q: err=%v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive"})
		return
	}
	if err := h.authService.ComparePassword(user.PasswordHash, strings.TrimSpace(req.Password)); err != nil {
		log.Printf("[auth][login] password mismatch for userID=%s", user.ID.Hex())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	accessToken, err := h.signAccessToken(user)
	if err != nil {
		log.Printf("[auth][login] sign access token failed for userID=%s: err=%v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	// Refresh (opaque) -> хранится в БД
	rt, err := utils.NewOpaqueToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}
	if err := h.userService.StoreRefresh(c.Request.Context(), user.ID, rt, time.Now().Add(refreshTokenTTL)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	log.Printf("[auth][login] success userID=%s role=%s", user.ID.Hex(), user.Role)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user, // у модели PasswordHash помечен json:"-", наружу не уйдет
		"tokens": gin.H{
			"access_token":  accessToken,
			"refresh_token": rt,
		},
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	old := strings.TrimSpace(req.RefreshToken)
	user, err := h.userService.GetByRefreshToken(c.Request.Context(), old)
	if err != nil || user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if time.Now().After(*user.RefreshExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	// rotate refresh
	newRT, err := utils.NewOpaqueToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate refresh token"})
		return
	}
	rotated, err := h.userService.RotateRefresh(c.Request.Context(), old, newRT, time.Now().Add(refreshTokenTTL))
	if err != nil || rotated == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	accessToken, err := h.signAccessToken(rotated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": newRT, // возвращаем новый (ротация)
	})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	// одинаковый ответ для любых адресов
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset email has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userService.UpdatePassword(c.Request.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
