package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"backchannel/internal/config"
	"backchannel/internal/handlers"
	"backchannel/internal/repositories"
	"backchannel/internal/routes"
	"backchannel/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === Mongo ===
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Fatal("БД недоступна: ", err)
	}
	db := client.Database(cfg.Database.Name)

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	channelRepo := repositories.NewChannelRepository(db)
	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo, emailService, authService)
	channelService := services.NewChannelService(channelRepo, userRepo, messageRepo, cfg.Channels.CascadeDeleteMessages)
	conversationService := services.NewConversationService(conversationRepo, userRepo, messageRepo, cfg.Channels.CascadeDeleteMessages)
	messageService := services.NewMessageService(messageRepo, channelRepo, conversationRepo)

	// === Handlers ===
	jwtSecret := []byte(cfg.JWT.Secret)
	authHandler := handlers.NewAuthHandler(userService, authService, jwtSecret)
	userHandler := handlers.NewUserHandler(userService)
	channelHandler := handlers.NewChannelHandler(channelService)
	conversationHandler := handlers.NewConversationHandler(conversationService, messageService)
	messageHandler := handlers.NewMessageHandler(messageService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger + healthcheck
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Роуты (JWT — внутри SetupRoutes)
	routes.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		userHandler,
		channelHandler,
		conversationHandler,
		messageHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
