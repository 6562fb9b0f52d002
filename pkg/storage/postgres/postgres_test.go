package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/absmach/voicefed/pkg/fl"
	"github.com/absmach/voicefed/pkg/storage/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to the database named by POSTGRES_TEST_HOST et al.
// Tests are skipped when no database is configured.
func newTestDB(t *testing.T) *postgres.Database {
	t.Helper()

	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}
	port := os.Getenv("POSTGRES_TEST_PORT")
	if port == "" {
		port = "5432"
	}

	db, err := postgres.NewDatabase(host, port, "test", "test", "test", "disable")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestFeedbackRepository(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewFeedbackRepository(db)

	entry := fl.FeedbackEntry{
		Record: fl.FeedbackRecord{
			ID:             uuid.NewString(),
			UserID:         "user-1",
			OriginalLabel:  "Neutral",
			ConfirmedLabel: "Happy",
			Confidence:     0.6,
			FeedbackType:   fl.Incorrect,
			ReceivedAt:     time.Now().UTC(),
		},
		Reason: "feedback type is not CORRECT",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.ErrorIs(t, repo.Create(context.Background(), entry), postgres.ErrCreate)

	got, err := repo.Get(context.Background(), entry.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Record.ConfirmedLabel, got.Record.ConfirmedLabel)
	assert.False(t, got.Eligible)

	_, err = repo.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, postgres.ErrNotFound)

	_, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, uint64(1))
}

func TestRoundRepository(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewRoundRepository(db)

	summary := fl.RoundSummary{
		ID:           uuid.NewString(),
		RoundID:      "round-7",
		Source:       fl.SourceListener,
		RecordIDs:    []string{"participant-a"},
		Success:      true,
		ModelVersion: "v1.0.4",
		UpdateCount:  4,
		CompletedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), summary))

	rounds, total, err := repo.List(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, uint64(1))

	var found bool
	for _, r := range rounds {
		if r.ID == summary.ID {
			found = true
			assert.Equal(t, summary.RecordIDs, r.RecordIDs)
			assert.Equal(t, "round-7", r.RoundID)
		}
	}
	assert.True(t, found)
}
