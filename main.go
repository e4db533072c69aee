package main

import (
	"context"
	"os"

	"github.com/fitlens-dev/fitlens/pkg/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, environment variables still apply.
	_ = godotenv.Load()

	if err := cli.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
