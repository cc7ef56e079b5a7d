// Package collector is a small stand-in for the job collection service: it
// accepts captured pages, stores them, and lists them back.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrPageNotFound = errors.New("job page not found")

// Page is one stored capture.
type Page struct {
	ID        int64
	URL       string
	HTML      string
	CreatedAt time.Time
}

// Store persists pages. IDs are assigned by the store, start at 1 and
// increase.
type Store interface {
	Create(ctx context.Context, url, html string) (*Page, error)
	Get(ctx context.Context, id int64) (*Page, error)
	List(ctx context.Context) ([]*Page, error)
	Close() error
}

// OpenStore picks a backend from dsn:
//
//	""  or "memory"                   in-process map
//	"postgres://..." / "postgresql://" PostgreSQL via pgx
//	"sqlite:<path>" or any other path  SQLite file (":memory:" works too)
func OpenStore(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		path := strings.TrimPrefix(dsn, "sqlite:")
		if path == "" {
			return nil, fmt.Errorf("sqlite dsn has no path: %q", dsn)
		}
		return NewSQLiteStore(ctx, path)
	}
}
