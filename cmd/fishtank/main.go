package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/cmd/fishtank/cmd"
)

func main() {
	// FISHTANK_* settings may come from a local .env file
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
