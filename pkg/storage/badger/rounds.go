package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/voicefed/pkg/fl"
)

const roundIndex = "round_seq:"

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

func (r *roundRepo) Create(ctx context.Context, s fl.RoundSummary) error {
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.insert(val, seqKey(roundIndex, s.CompletedAt.UnixNano(), s.ID))
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]fl.RoundSummary, uint64, error) {
	prefix := []byte(roundIndex)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	rounds := make([]fl.RoundSummary, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &rounds[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return rounds, total, nil
}
