package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/katakuxiko/faqbot/internal/model"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

// PgIndex is a PassageIndex backed by Postgres and pgvector. It only
// mirrors the in-memory document: the table is emptied on open and on
// every Reset, so nothing survives a restart.
type PgIndex struct {
	db       *sql.DB
	embedder Embedder
}

func NewPgIndex(ctx context.Context, conn string, embedder Embedder) (*PgIndex, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE faq_passages`); err != nil {
		db.Close()
		return nil, fmt.Errorf("truncate passages: %w", err)
	}
	return &PgIndex{db: db, embedder: embedder}, nil
}

// Reset embeds every chunk, then swaps the table contents in one
// transaction. A failed embedding aborts the reset and keeps the old rows.
func (s *PgIndex) Reset(ctx context.Context, chunks []model.Chunk) error {
	vecs := make([]pgvector.Vector, len(chunks))
	for i, c := range chunks {
		emb, err := s.embedder.Embedding(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", c.ID, err)
		}
		vecs[i] = pgvector.NewVector(emb)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE faq_passages`); err != nil {
		return fmt.Errorf("truncate passages: %w", err)
	}
	for i, c := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO faq_passages (chunk_id, text, embedding)
			VALUES ($1, $2, $3)
		`, c.ID, c.Text, vecs[i])
		if err != nil {
			return fmt.Errorf("insert %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PgIndex) Search(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	emb, err := s.embedder.Embedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, text
		FROM faq_passages
		ORDER BY embedding <-> $1
		LIMIT $2
	`, pgvector.NewVector(emb), k)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	defer rows.Close()

	var res []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.Text); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *PgIndex) Close() error {
	return s.db.Close()
}
