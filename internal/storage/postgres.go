package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scraper/internal/domain"
)

// ErrNotFound is returned when a queried URL has never been tracked.
var ErrNotFound = errors.New("not_found")

// PostgresStore handles interactions with the PostgreSQL database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SaveItems upserts extracted content items in a single batched transaction.
func (s *PostgresStore) SaveItems(ctx context.Context, items []domain.ContentItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(
			`INSERT INTO content_items (title, content, content_type, source_url, author, user_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (source_url) DO UPDATE SET
			   title = EXCLUDED.title, content = EXCLUDED.content, author = EXCLUDED.author, updated_at = NOW()`,
			item.Title, item.Content, item.ContentType, item.SourceURL, item.Author, item.UserID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SaveURLStatus records the processing state of one URL.
func (s *PostgresStore) SaveURLStatus(ctx context.Context, url, status, failReason string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO crawled_urls (url, status, fail_reason)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (url) DO UPDATE SET
		   status = EXCLUDED.status, fail_reason = EXCLUDED.fail_reason, updated_at = NOW()`,
		url, status, failReason)
	return err
}

// GetURLStatus retrieves the current status of a URL.
func (s *PostgresStore) GetURLStatus(ctx context.Context, url string) (*domain.URLStatusResponse, error) {
	var status domain.URLStatusResponse
	err := s.db.QueryRow(ctx,
		`SELECT url, status, fail_reason, updated_at FROM crawled_urls WHERE url = $1`,
		url,
	).Scan(&status.URL, &status.Status, &status.FailReason, &status.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &status, err
}
