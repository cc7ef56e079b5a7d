package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/hoarder-capture/internal/logging"
	"github.com/raysh454/hoarder-capture/internal/model"
)

// ChromedpSource reads tabs of an already running Chrome through chromedp.
//
// Every operation opens its own chromedp context off a shared remote
// allocator. chromedp closes any target a remote-allocated context is still
// attached to when that context is cancelled, so reads detach from the tab
// and drop chromedp's handle on it first.
type ChromedpSource struct {
	cfg         Config
	logger      logging.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpSource connects lazily: no traffic happens until the first call.
func NewChromedpSource(cfg Config, logger logging.Logger) (*ChromedpSource, error) {
	if strings.TrimSpace(cfg.DevToolsURL) == "" {
		return nil, fmt.Errorf("chromedp: devtools url is required")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cfg.DevToolsURL)

	logger = logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	logger.Debug("created chromedp tab source", logging.Field{Key: "devtools", Value: cfg.DevToolsURL})

	return &ChromedpSource{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// bind derives a chromedp context from the allocator that is also cancelled
// when ctx is. It must not be used to attach to a tab.
func (s *ChromedpSource) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx, cancel := chromedp.NewContext(s.allocCtx)
	stop := context.AfterFunc(ctx, cancel)
	return cctx, func() {
		stop()
		cancel()
	}
}

// ActiveTab picks the first page target Chrome reports.
func (s *ChromedpSource) ActiveTab(ctx context.Context) (*model.Tab, error) {
	cctx, cancel := s.bind(ctx)
	defer cancel()

	infos, err := chromedp.Targets(cctx)
	if err != nil {
		s.logger.Warn("listing targets failed", logging.Err(err))
		return nil, tabAccess(nil, fmt.Errorf("list targets: %w", err))
	}
	tab := firstPage(infos)
	if tab == nil {
		return nil, tabAccess(nil, model.ErrNoActiveTab)
	}
	s.logger.Debug("active tab", logging.Field{Key: "id", Value: tab.ID}, logging.Field{Key: "url", Value: tab.URL})
	return tab, nil
}

func firstPage(infos []*target.Info) *model.Tab {
	for _, info := range infos {
		if info == nil || info.Type != "page" {
			continue
		}
		return &model.Tab{ID: string(info.TargetID), URL: info.URL, Title: info.Title}
	}
	return nil
}

// OuterHTML evaluates SerializeDocument inside tab. The tab stays open.
func (s *ChromedpSource) OuterHTML(ctx context.Context, tab *model.Tab) (string, error) {
	if tab == nil || tab.ID == "" {
		return "", tabAccess(tab, model.ErrNoActiveTab)
	}
	if tab.Restricted() {
		return "", tabAccess(tab, ErrRestrictedPage)
	}

	ctx, cancelTimeout := withEvalTimeout(ctx, s.cfg.EvalTimeout)
	defer cancelTimeout()

	sess, err := s.attach(ctx, target.ID(tab.ID))
	if err != nil {
		s.logger.Warn("attaching to tab failed", logging.Field{Key: "url", Value: tab.URL}, logging.Err(err))
		return "", tabAccess(tab, fmt.Errorf("attach: %w", err))
	}
	defer sess.release()

	res, exc, err := runtime.Evaluate(SerializeDocument).
		WithReturnByValue(true).
		Do(cdp.WithExecutor(ctx, sess.tab))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("reading document timed out: %w", err)
		}
		s.logger.Warn("evaluating serializer failed", logging.Field{Key: "url", Value: tab.URL}, logging.Err(err))
		return "", tabAccess(tab, err)
	}
	if exc != nil {
		return "", tabAccess(tab, fmt.Errorf("page script threw: %s", exc.Text))
	}
	if res == nil {
		return "", tabAccess(tab, errors.New("empty evaluation result"))
	}

	var html string
	if err := json.Unmarshal(res.Value, &html); err != nil {
		return "", tabAccess(tab, fmt.Errorf("decode document: %w", err))
	}
	return html, nil
}

// tabSession is a chromedp attachment to an existing tab.
type tabSession struct {
	cctx   context.Context
	cancel context.CancelFunc
	tab    *chromedp.Target
}

// attach connects to the browser and attaches to id. The chromedp context
// is not bound to ctx, since cancelling it while attached closes the tab. If
// ctx ends first, the attachment is released in the background once chromedp
// returns.
func (s *ChromedpSource) attach(ctx context.Context, id target.ID) (*tabSession, error) {
	cctx, cancel := chromedp.NewContext(s.allocCtx, chromedp.WithTargetID(id))
	sess := &tabSession{cctx: cctx, cancel: cancel}

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(cctx) }()

	select {
	case err := <-done:
		if err != nil {
			sess.release()
			return nil, err
		}
		sess.tab = chromedp.FromContext(cctx).Target
		return sess, nil
	case <-ctx.Done():
		go func() {
			<-done
			sess.release()
		}()
		return nil, ctx.Err()
	}
}

// release detaches from the tab and forgets it before cancelling the
// chromedp context, so the cancellation has no target to close.
func (sess *tabSession) release() {
	c := chromedp.FromContext(sess.cctx)
	if c != nil && c.Target != nil {
		dctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = target.DetachFromTarget().
			WithSessionID(c.Target.SessionID).
			Do(cdp.WithExecutor(dctx, c.Browser))
		cancel()
		c.Target = nil
	}
	sess.cancel()
}

func (s *ChromedpSource) Close() error {
	s.allocCancel()
	return nil
}
