package store

import (
	"context"
	"database/sql"
)

// ensureSchema creates the pgvector extension and the passage table. The
// embedding column is left undimensioned so any embedding model fits.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS faq_passages (
			id SERIAL PRIMARY KEY,
			chunk_id TEXT NOT NULL,
			text TEXT NOT NULL,
			embedding vector NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
