package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sonic-vault/cmd"
)

func main() {
	// Optional .env for contract addresses and keys
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
