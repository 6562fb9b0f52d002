package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrNotFound     = errors.New("not found")
)

type FeedbackRepository interface {
	Create(ctx context.Context, e fl.FeedbackEntry) error
	Get(ctx context.Context, id string) (fl.FeedbackEntry, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.FeedbackEntry, uint64, error)
}

type RoundRepository interface {
	Create(ctx context.Context, r fl.RoundSummary) error
	List(ctx context.Context, offset, limit uint64) ([]fl.RoundSummary, uint64, error)
}

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_feedback",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS feedback (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL,
						original_label TEXT,
						confirmed_label TEXT,
						confidence REAL NOT NULL,
						feedback_type TEXT NOT NULL,
						raw_sample BLOB,
						eligible INTEGER NOT NULL DEFAULT 0,
						reason TEXT,
						received_at TIMESTAMP NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_feedback_received_at ON feedback(received_at)`,
					`CREATE INDEX IF NOT EXISTS idx_feedback_user_id ON feedback(user_id)`,
					`CREATE TABLE IF NOT EXISTS rounds (
						id TEXT PRIMARY KEY,
						source TEXT NOT NULL,
						record_ids TEXT,
						success INTEGER NOT NULL DEFAULT 0,
						model_version TEXT,
						update_count INTEGER NOT NULL DEFAULT 0,
						error TEXT,
						completed_at TIMESTAMP NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_rounds_completed_at ON rounds(completed_at)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_rounds_completed_at`,
					`DROP TABLE IF EXISTS rounds`,
					`DROP INDEX IF EXISTS idx_feedback_user_id`,
					`DROP INDEX IF EXISTS idx_feedback_received_at`,
					`DROP TABLE IF EXISTS feedback`,
				},
			},
			{
				Id: "2_rounds_round_id",
				Up: []string{
					`ALTER TABLE rounds ADD COLUMN round_id TEXT`,
				},
				Down: []string{
					`ALTER TABLE rounds DROP COLUMN round_id`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
