package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
	"github.com/Kush-Singh-26/wasmserve/internal/mimetype"
	"github.com/Kush-Singh-26/wasmserve/internal/server"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		printUsage()
		os.Exit(exitUsage)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, mimetype.Default(), server.WithLogger(logger))
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(exitFailure)
	}

	logger.Info("Server stopped")
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: wasmserve [port]")
	fmt.Fprintf(os.Stderr, "\nServes the current directory on http://localhost:<port> (default %d)\n", config.DefaultPort)
	fmt.Fprintln(os.Stderr, "with application/wasm for .wasm files and cross-origin isolation headers.")
}
