// Command collectord runs a local job collection service that the capture
// tool can submit pages to.
//
// Usage: collectord [-addr :8000] [-dsn memory|sqlite:<path>|postgres://...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/hoarder-capture/internal/app"
	"github.com/raysh454/hoarder-capture/internal/collector"
	"github.com/raysh454/hoarder-capture/internal/logging"
)

func main() {
	cfg := app.LoadConfig()

	fs := flag.NewFlagSet("collectord", flag.ExitOnError)
	addr := fs.String("addr", cfg.Collector.ListenAddr, "HTTP listen address")
	dsn := fs.String("dsn", cfg.Collector.DSN, "Store: memory, sqlite:<path> or postgres://...")
	_ = fs.Parse(os.Args[1:])

	logger := logging.New(cfg.Logging, "collectord")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := collector.OpenStore(ctx, *dsn)
	if err != nil {
		logger.Error("opening store", logging.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	srv, err := collector.NewServer(collector.Config{ListenAddr: *addr, DSN: *dsn, Logger: logger}, store)
	if err != nil {
		logger.Error("creating server", logging.Err(err))
		os.Exit(1)
	}
	httpSrv := srv.HTTPServer()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Job collection service listening on %s\n", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", logging.Err(err))
		os.Exit(1)
	}
}
