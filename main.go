package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/cli"
)

func main() {
	// A .env next to the binary or in the working directory can carry
	// API keys; absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
