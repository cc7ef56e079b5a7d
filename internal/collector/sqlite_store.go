package collector

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql schema_postgres.sql
var schemaFS embed.FS

// SQLiteStore keeps pages in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path and runs migrations from schema.sql.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is
	// per connection.
	db.SetMaxOpenConns(1)

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, url, html string) (*Page, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_page (url, page_html, created_at) VALUES (?, ?, ?)`,
		url, html, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job page: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job page id: %w", err)
	}
	return &Page{ID: id, URL: url, HTML: html, CreatedAt: time.Unix(now.Unix(), 0).UTC()}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Page, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT page_id, url, page_html, created_at FROM job_page WHERE page_id = ? LIMIT 1`, id)
	var (
		p       Page
		created int64
	)
	if err := row.Scan(&p.ID, &p.URL, &p.HTML, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	return &p, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_id, url, page_html, created_at FROM job_page ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("list job pages: %w", err)
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		var (
			p       Page
			created int64
		)
		if err := rows.Scan(&p.ID, &p.URL, &p.HTML, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
