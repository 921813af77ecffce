package main

//go:generate swag init -g internal/server/docs.go -o docs

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"branchkit/internal/app"
	"branchkit/internal/cli/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application := app.New()
	err := application.RunWithContext(ctx, os.Args[1:])
	if err == nil {
		return
	}
	if !commands.Reported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	cancel()
	os.Exit(commands.ExitCode(err))
}
