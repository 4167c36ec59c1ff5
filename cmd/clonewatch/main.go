package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"clonewatch/internal/cli"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
