package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/raysh454/hoarder-capture/internal/logging"
)

// BackendConstructor constructs a TabSource given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (TabSource, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the chromedp and cdp backends.
func RegisterDefaultBackends() {
	RegisterBackend(string(BackendChromedp), func(cfg Config, logger logging.Logger) (TabSource, error) {
		return NewChromedpSource(cfg, logger)
	})
	RegisterBackend(string(BackendCDP), func(cfg Config, logger logging.Logger) (TabSource, error) {
		return NewCDPSource(cfg, logger)
	})
}

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewTabSource constructs the configured backend, defaulting to chromedp.
func NewTabSource(cfg Config, logger logging.Logger) (TabSource, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))
	if backend == "" {
		backend = string(BackendChromedp)
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	ts, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if ts == nil {
		return nil, errors.New("browser constructor returned nil")
	}
	return ts, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
