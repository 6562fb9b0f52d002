package storage

import (
	"context"
	"sync"

	pkgerrors "github.com/absmach/voicefed/pkg/errors"
	"github.com/absmach/voicefed/pkg/fl"
)

// inMemoryLog is an append-only keyed log that lists in insertion order.
type inMemoryLog[T any] struct {
	sync.Mutex

	keys []string
	data map[string]T
}

func newInMemoryLog[T any]() *inMemoryLog[T] {
	return &inMemoryLog[T]{
		data: make(map[string]T),
	}
}

func (s *inMemoryLog[T]) create(key string, value T) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; ok {
		return pkgerrors.ErrEntityExists
	}

	s.keys = append(s.keys, key)
	s.data[key] = value

	return nil
}

func (s *inMemoryLog[T]) get(key string) (T, error) {
	var zero T
	if key == "" {
		return zero, pkgerrors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if val, ok := s.data[key]; ok {
		return val, nil
	}

	return zero, pkgerrors.ErrNotFound
}

func (s *inMemoryLog[T]) list(offset, limit uint64) ([]T, uint64) {
	s.Lock()
	defer s.Unlock()

	total := uint64(len(s.keys))
	if offset >= total {
		return []T{}, total
	}

	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}

	result := make([]T, end-offset)
	for i := offset; i < end; i++ {
		result[i-offset] = s.data[s.keys[i]]
	}

	return result, total
}

type memoryFeedbackRepo struct {
	log *inMemoryLog[fl.FeedbackEntry]
}

type memoryRoundRepo struct {
	log *inMemoryLog[fl.RoundSummary]
}

func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Feedback: &memoryFeedbackRepo{log: newInMemoryLog[fl.FeedbackEntry]()},
		Rounds:   &memoryRoundRepo{log: newInMemoryLog[fl.RoundSummary]()},
	}
}

// Create keeps the entry without its audio sample; the in-memory log lives
// as long as the process and only serves listing.
func (r *memoryFeedbackRepo) Create(_ context.Context, e fl.FeedbackEntry) error {
	e.Record.RawSample = nil

	return r.log.create(e.Record.ID, e)
}

func (r *memoryFeedbackRepo) Get(_ context.Context, id string) (fl.FeedbackEntry, error) {
	return r.log.get(id)
}

func (r *memoryFeedbackRepo) List(_ context.Context, offset, limit uint64) ([]fl.FeedbackEntry, uint64, error) {
	entries, total := r.log.list(offset, limit)

	return entries, total, nil
}

func (r *memoryRoundRepo) Create(_ context.Context, s fl.RoundSummary) error {
	return r.log.create(s.ID, s)
}

func (r *memoryRoundRepo) List(_ context.Context, offset, limit uint64) ([]fl.RoundSummary, uint64, error) {
	rounds, total := r.log.list(offset, limit)

	return rounds, total, nil
}
