package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/voicefed/pkg/fl"
)

const (
	feedbackPrefix = "feedback:"
	feedbackIndex  = "feedback_seq:"
)

type feedbackRepo struct {
	db *Database
}

func NewFeedbackRepository(db *Database) FeedbackRepository {
	return &feedbackRepo{db: db}
}

// Entries are stored under their id and listed through a time-ordered index
// so pages come back in submission order.
func (r *feedbackRepo) Create(ctx context.Context, e fl.FeedbackEntry) error {
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return r.db.insert(val,
		[]byte(feedbackPrefix+e.Record.ID),
		seqKey(feedbackIndex, e.Record.ReceivedAt.UnixNano(), e.Record.ID),
	)
}

func (r *feedbackRepo) Get(ctx context.Context, id string) (fl.FeedbackEntry, error) {
	val, err := r.db.get([]byte(feedbackPrefix + id))
	if err != nil {
		return fl.FeedbackEntry{}, err
	}

	var e fl.FeedbackEntry
	if err := json.Unmarshal(val, &e); err != nil {
		return fl.FeedbackEntry{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return e, nil
}

func (r *feedbackRepo) List(ctx context.Context, offset, limit uint64) ([]fl.FeedbackEntry, uint64, error) {
	prefix := []byte(feedbackIndex)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]fl.FeedbackEntry, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &entries[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return entries, total, nil
}

// seqKey sorts lexicographically by timestamp; the id keeps keys unique.
func seqKey(prefix string, nanos int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefix, nanos, id))
}
