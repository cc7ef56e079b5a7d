// Command capture saves a job page to the collection service.
//
// Usage:
//
//	capture                      save the active Chrome tab
//	capture -url https://...     fetch and save a page by URL
//	capture -mode health         probe the collection service
//	capture -mode popup          serve the capture popup on a local port
//
// Chrome must run with --remote-debugging-port (default 9222) for the
// active-tab modes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/hoarder-capture/internal/app"
	"github.com/raysh454/hoarder-capture/internal/cli"
	"github.com/raysh454/hoarder-capture/internal/logging"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "capture: %v\n", err)
		os.Exit(2)
	}

	cfg := app.LoadConfig()
	logger := logging.New(cfg.Logging, "capture")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApplication(cfg, args, logger, os.Stdout)
	if err != nil {
		logger.Error("startup failed", logging.Err(err))
		os.Exit(1)
	}

	code, err := a.Run(ctx)
	if err != nil {
		logger.Error("run failed", logging.Err(err))
	}
	if err := a.Shutdown(context.Background()); err != nil {
		logger.Warn("shutdown", logging.Err(err))
	}
	os.Exit(code)
}
