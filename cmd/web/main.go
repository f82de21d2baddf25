package main

import (
	"github.com/joho/godotenv"

	"convo_backend/internal/app"
	"convo_backend/internal/logger"
)

func main() {
	// .env is a local convenience; absence is not an error.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		logger.Fatal("application exited", "error", err.Error())
	}
}
