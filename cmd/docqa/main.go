package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docqa/cmd/docqa/commands"
)

// Version information (set at build time)
var version = "dev"

func main() {
	commands.SetVersion(version)

	// Контекст с сигналами завершения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
