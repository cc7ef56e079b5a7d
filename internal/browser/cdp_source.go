package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
)

// CDPSource reads tabs through the DevTools HTTP listing and a raw CDP
// connection per read. The listing is ordered by last activity, so its first
// page is the tab the user most recently focused.
type CDPSource struct {
	cfg    Config
	dt     *devtool.DevTools
	logger logging.Logger
}

func NewCDPSource(cfg Config, logger logging.Logger) (*CDPSource, error) {
	if strings.TrimSpace(cfg.DevToolsURL) == "" {
		return nil, fmt.Errorf("cdp: devtools url is required")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &CDPSource{
		cfg:    cfg,
		dt:     devtool.New(strings.TrimRight(cfg.DevToolsURL, "/")),
		logger: logger.With(logging.Field{Key: "backend", Value: "cdp"}),
	}, nil
}

func (s *CDPSource) pages(ctx context.Context) ([]*devtool.Target, error) {
	targets, err := s.dt.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*devtool.Target, 0, len(targets))
	for _, t := range targets {
		if t != nil && t.Type == devtool.Page {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *CDPSource) ActiveTab(ctx context.Context) (*model.Tab, error) {
	pages, err := s.pages(ctx)
	if err != nil {
		s.logger.Warn("listing targets failed", logging.Err(err))
		return nil, tabAccess(nil, fmt.Errorf("list targets: %w", err))
	}
	if len(pages) == 0 {
		return nil, tabAccess(nil, model.ErrNoActiveTab)
	}
	t := pages[0]
	return &model.Tab{ID: t.ID, URL: t.URL, Title: t.Title}, nil
}

func (s *CDPSource) OuterHTML(ctx context.Context, tab *model.Tab) (string, error) {
	if tab == nil || tab.ID == "" {
		return "", tabAccess(tab, model.ErrNoActiveTab)
	}
	if tab.Restricted() {
		return "", tabAccess(tab, ErrRestrictedPage)
	}

	ctx, cancel := withEvalTimeout(ctx, s.cfg.EvalTimeout)
	defer cancel()

	pages, err := s.pages(ctx)
	if err != nil {
		return "", tabAccess(tab, fmt.Errorf("list targets: %w", err))
	}
	var wsURL string
	for _, p := range pages {
		if p.ID == tab.ID {
			wsURL = p.WebSocketDebuggerURL
			break
		}
	}
	if wsURL == "" {
		return "", tabAccess(tab, errors.New("tab is gone or already has a debugger attached"))
	}

	conn, err := rpcc.DialContext(ctx, wsURL)
	if err != nil {
		return "", tabAccess(tab, fmt.Errorf("dial tab: %w", err))
	}
	defer conn.Close()

	client := cdp.NewClient(conn)
	reply, err := client.Runtime.Evaluate(ctx, runtime.NewEvaluateArgs(SerializeDocument).SetReturnByValue(true))
	if err != nil {
		s.logger.Warn("evaluating serializer failed", logging.Field{Key: "url", Value: tab.URL}, logging.Err(err))
		return "", tabAccess(tab, err)
	}
	if reply.ExceptionDetails != nil {
		return "", tabAccess(tab, fmt.Errorf("page script threw: %s", reply.ExceptionDetails.Text))
	}

	var html string
	if err := json.Unmarshal(reply.Result.Value, &html); err != nil {
		return "", tabAccess(tab, fmt.Errorf("decode document: %w", err))
	}
	return html, nil
}

func (s *CDPSource) Close() error { return nil }
