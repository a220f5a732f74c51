package main

import (
	"os"

	"github.com/wonny/holdings/cmd/holdings/commands"
)

// main is the entry point for the holdings CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/holdings [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
