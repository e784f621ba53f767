package main

import (
	"log"

	"github.com/joho/godotenv"

	"backchannel/internal/app"
)

func main() {
	// .env не обязателен: в проде всё приходит из окружения
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	app.Run()
}
