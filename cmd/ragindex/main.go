package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/openclinic/ragindex/internal/adapters/driving/cli"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
