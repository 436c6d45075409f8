// Package main is the entry point for the astroctl CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"astroctl/internal/backend/httpapi"
	"astroctl/internal/cli"
	"astroctl/internal/commands"
	"astroctl/internal/config"
	"astroctl/internal/service"
)

func main() {
	// Cancel on interrupt so an open solve stream is closed cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return httpapi.New(ctx, cfg)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
