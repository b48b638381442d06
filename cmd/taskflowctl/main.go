// Command taskflowctl is the operator CLI working directly on the TaskFlow store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidar/taskflow/internal/app"
	"github.com/aidar/taskflow/internal/config"
	"github.com/aidar/taskflow/internal/repository"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskflowctl",
		Short:   "taskflowctl - operator tools for TaskFlow Pro",
		Version: Version,
	}

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(invitationsCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds the opened store and services for one command run
type env struct {
	store    repository.Store
	services *app.Services
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close store: %v\n", err)
	}
}

// openEnv loads the server configuration and opens the same store the server uses
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Logs go to stderr so command output stays clean
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := app.OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	services, err := app.NewServices(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &env{store: store, services: services}, nil
}
