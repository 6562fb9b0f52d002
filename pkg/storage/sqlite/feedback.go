package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
)

type feedbackRepo struct {
	db *Database
}

func NewFeedbackRepository(db *Database) FeedbackRepository {
	return &feedbackRepo{db: db}
}

type dbFeedback struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	OriginalLabel  sql.NullString `db:"original_label"`
	ConfirmedLabel sql.NullString `db:"confirmed_label"`
	Confidence     float64        `db:"confidence"`
	FeedbackType   string         `db:"feedback_type"`
	RawSample      []byte         `db:"raw_sample"`
	Eligible       bool           `db:"eligible"`
	Reason         sql.NullString `db:"reason"`
	ReceivedAt     time.Time      `db:"received_at"`
}

func (r *feedbackRepo) Create(ctx context.Context, e fl.FeedbackEntry) error {
	query := `INSERT INTO feedback (id, user_id, original_label, confirmed_label, confidence, feedback_type, raw_sample, eligible, reason, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	rec := e.Record
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, nullString(string(rec.OriginalLabel)), nullString(string(rec.ConfirmedLabel)),
		rec.Confidence, string(rec.FeedbackType), rec.RawSample,
		e.Eligible, nullString(e.Reason), rec.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *feedbackRepo) Get(ctx context.Context, id string) (fl.FeedbackEntry, error) {
	query := `SELECT id, user_id, original_label, confirmed_label, confidence, feedback_type, raw_sample, eligible, reason, received_at
		FROM feedback WHERE id = ?`

	var row dbFeedback
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fl.FeedbackEntry{}, ErrNotFound
		}

		return fl.FeedbackEntry{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return row.toEntry(), nil
}

func (r *feedbackRepo) List(ctx context.Context, offset, limit uint64) ([]fl.FeedbackEntry, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM feedback`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, user_id, original_label, confirmed_label, confidence, feedback_type, raw_sample, eligible, reason, received_at
		FROM feedback ORDER BY received_at ASC, id ASC LIMIT ? OFFSET ?`

	var rows []dbFeedback
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	entries := make([]fl.FeedbackEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toEntry()
	}

	return entries, total, nil
}

func (row dbFeedback) toEntry() fl.FeedbackEntry {
	return fl.FeedbackEntry{
		Record: fl.FeedbackRecord{
			ID:             row.ID,
			UserID:         row.UserID,
			OriginalLabel:  fl.Emotion(row.OriginalLabel.String),
			ConfirmedLabel: fl.Emotion(row.ConfirmedLabel.String),
			Confidence:     row.Confidence,
			FeedbackType:   fl.FeedbackType(row.FeedbackType),
			RawSample:      row.RawSample,
			ReceivedAt:     row.ReceivedAt,
		},
		Eligible: row.Eligible,
		Reason:   row.Reason.String,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
