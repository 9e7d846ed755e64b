package main

import (
	"github.com/joho/godotenv"

	"github.com/reviewsim/reviewsim/internal/cli"
)

// version, commit, date are injected by the linker via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// API keys may live in a .env file next to the project.
	_ = godotenv.Load()
	cli.Execute(version, commit, date)
}
