package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
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

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
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
						id VARCHAR(36) PRIMARY KEY,
						user_id VARCHAR(255) NOT NULL,
						original_label VARCHAR(64),
						confirmed_label VARCHAR(64),
						confidence DOUBLE PRECISION NOT NULL,
						feedback_type VARCHAR(16) NOT NULL,
						raw_sample BYTEA,
						eligible BOOLEAN NOT NULL DEFAULT FALSE,
						reason TEXT,
						received_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_feedback_received_at ON feedback(received_at)`,
					`CREATE INDEX IF NOT EXISTS idx_feedback_user_id ON feedback(user_id)`,
					`CREATE TABLE IF NOT EXISTS rounds (
						id VARCHAR(64) PRIMARY KEY,
						source VARCHAR(16) NOT NULL,
						record_ids JSONB,
						success BOOLEAN NOT NULL DEFAULT FALSE,
						model_version VARCHAR(64),
						update_count INTEGER NOT NULL DEFAULT 0,
						error TEXT,
						completed_at TIMESTAMPTZ NOT NULL
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
					`ALTER TABLE rounds ADD COLUMN round_id VARCHAR(64)`,
				},
				Down: []string{
					`ALTER TABLE rounds DROP COLUMN round_id`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
