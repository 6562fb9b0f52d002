package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
)

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

type dbRound struct {
	ID           string         `db:"id"`
	RoundID      sql.NullString `db:"round_id"`
	Source       string         `db:"source"`
	RecordIDs    []byte         `db:"record_ids"`
	Success      bool           `db:"success"`
	ModelVersion sql.NullString `db:"model_version"`
	UpdateCount  int            `db:"update_count"`
	Error        sql.NullString `db:"error"`
	CompletedAt  time.Time      `db:"completed_at"`
}

func (r *roundRepo) Create(ctx context.Context, s fl.RoundSummary) error {
	query := `INSERT INTO rounds (id, round_id, source, record_ids, success, model_version, update_count, error, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ids, err := json.Marshal(s.RecordIDs)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query,
		s.ID, nullString(s.RoundID), s.Source, ids, s.Success, nullString(s.ModelVersion), s.UpdateCount, nullString(s.Error), s.CompletedAt,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]fl.RoundSummary, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rounds`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, round_id, source, record_ids, success, model_version, update_count, error, completed_at
		FROM rounds ORDER BY completed_at ASC, id ASC LIMIT ? OFFSET ?`

	var rows []dbRound
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	rounds := make([]fl.RoundSummary, len(rows))
	for i, row := range rows {
		var ids []string
		if len(row.RecordIDs) > 0 {
			if err := json.Unmarshal(row.RecordIDs, &ids); err != nil {
				return nil, 0, fmt.Errorf("unmarshal error: %w", err)
			}
		}
		rounds[i] = fl.RoundSummary{
			ID:           row.ID,
			RoundID:      row.RoundID.String,
			Source:       row.Source,
			RecordIDs:    ids,
			Success:      row.Success,
			ModelVersion: row.ModelVersion.String,
			UpdateCount:  row.UpdateCount,
			Error:        row.Error.String,
			CompletedAt:  row.CompletedAt,
		}
	}

	return rounds, total, nil
}
