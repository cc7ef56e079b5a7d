package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raysh454/hoarder-capture/internal/capture"
	"github.com/raysh454/hoarder-capture/internal/cli"
	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/metrics"
	"github.com/raysh454/hoarder-capture/internal/popup"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the core services shared across
// modules. Pass Application into modules that need access to the global
// state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs
	Logger logging.Logger

	Components *Components
	Metrics    *metrics.Metrics
	Controller *capture.Controller

	// state is set in popup mode only.
	state *capture.StateDisplay

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication wires components and the capture controller for args.Mode.
// Console output of submit and health modes goes to out.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, out io.Writer) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if args == nil {
		args = &cli.CLIArgs{Mode: cli.ModeSubmit}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	cfg.ApplyArgs(args)

	comps, err := NewComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &Application{
		Config:     cfg,
		Args:       args,
		Logger:     logger,
		Components: comps,
		Metrics:    metrics.New(),
	}

	var display capture.Display
	if args.Mode == cli.ModePopup {
		a.state = capture.NewStateDisplay()
		display = a.state
	} else {
		display = NewConsoleDisplay(out)
	}

	a.Controller, err = capture.NewController(capture.Deps{
		Tabs:      comps.Tabs,
		Fetcher:   comps.Fetcher,
		Collector: comps.Collection,
		Display:   display,
		Recorder:  a.Metrics,
		Logger:    logger,
	})
	if err != nil {
		_ = comps.Close()
		return nil, fmt.Errorf("new controller: %w", err)
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// Run executes the selected mode. The returned code is the process exit
// status: 0 on success, 1 when the capture or probe failed.
func (a *Application) Run(ctx context.Context) (int, error) {
	if a == nil {
		return 1, errors.New("application is nil")
	}
	a.Logger.Info("application starting",
		logging.Field{Key: "mode", Value: a.Args.Mode},
		logging.Field{Key: "browser", Value: string(a.Config.Browser.Backend)},
	)

	switch a.Args.Mode {
	case cli.ModeHealth:
		if a.Controller.RefreshConnection(ctx) != capture.Connected {
			return 1, nil
		}
		return 0, nil
	case cli.ModePopup:
		if err := a.ServePopup(ctx); err != nil {
			return 1, err
		}
		return 0, nil
	default:
		out, err := a.Controller.Run(ctx, a.Args.URL)
		if err != nil {
			return 1, err
		}
		if out.IsError {
			return 1, nil
		}
		return 0, nil
	}
}

// ServePopup serves the popup page until ctx is cancelled.
func (a *Application) ServePopup(ctx context.Context) error {
	if a.state == nil {
		return errors.New("application was not built for popup mode")
	}
	srv, err := popup.NewServer(popup.Config{ListenAddr: a.Config.PopupAddr, Logger: a.Logger}, a.Controller, a.state, a.Metrics)
	if err != nil {
		return err
	}
	httpSrv := srv.HTTPServer()

	go a.Controller.Load(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("popup listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	case <-a.ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// Shutdown releases the browser connection and HTTP resources.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	a.cancel()
	return a.Components.Close()
}
