package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps pages in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	schemaSQL, err := schemaFS.ReadFile("schema_postgres.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema_postgres.sql: %w", err)
	}
	if _, err := db.Exec(ctx, string(schemaSQL)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(ctx context.Context, url, html string) (*Page, error) {
	p := Page{URL: url, HTML: html}
	err := s.db.QueryRow(ctx,
		`INSERT INTO job_page (url, page_html) VALUES ($1, $2) RETURNING page_id, created_at`,
		url, html,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert job page: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Page, error) {
	var p Page
	err := s.db.QueryRow(ctx,
		`SELECT page_id, url, page_html, created_at FROM job_page WHERE page_id = $1`, id,
	).Scan(&p.ID, &p.URL, &p.HTML, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Page, error) {
	rows, err := s.db.Query(ctx,
		`SELECT page_id, url, page_html, created_at FROM job_page ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("list job pages: %w", err)
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.URL, &p.HTML, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
