package coordinator

import (
	"sync"

	"github.com/absmach/voicefed/pkg/fl"
)

// Queue holds eligible records waiting for aggregation in arrival order.
type Queue struct {
	mu      sync.Mutex
	records []fl.FeedbackRecord
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Append(rec fl.FeedbackRecord) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.records = append(q.records, rec)

	return len(q.records)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.records)
}

// Snapshot returns a copy of the oldest n records without removing them.
func (q *Queue) Snapshot(n int) []fl.FeedbackRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.records) || n <= 0 {
		n = len(q.records)
	}
	out := make([]fl.FeedbackRecord, n)
	copy(out, q.records[:n])

	return out
}

// Drain removes the oldest n records.
func (q *Queue) Drain(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.records) {
		n = len(q.records)
	}
	rest := make([]fl.FeedbackRecord, len(q.records)-n)
	copy(rest, q.records[n:])
	q.records = rest
}
