package coordinator

import (
	"context"
	"sync"

	"github.com/absmach/voicefed/pkg/fl"
)

// Trigger runs an aggregation round whenever the queue holds a full batch.
// It owns the round lock: at most one round, from feedback or from the
// listener, executes at a time.
type Trigger struct {
	mu        sync.Mutex
	queue     *Queue
	runner    *fl.RoundRunner
	batchSize int
}

func NewTrigger(queue *Queue, runner *fl.RoundRunner, batchSize int) *Trigger {
	return &Trigger{
		queue:     queue,
		runner:    runner,
		batchSize: batchSize,
	}
}

// MaybeRun aggregates full batches until the queue is below the batch size or
// a round fails. A successful round drains exactly its batch; a failed round
// leaves the queue untouched so the batch is retried on the next submission.
// It returns every round executed during the call.
func (t *Trigger) MaybeRun(ctx context.Context) []fl.AggregationRound {
	if t.queue.Len() < t.batchSize {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var rounds []fl.AggregationRound
	for t.queue.Len() >= t.batchSize {
		batch := t.queue.Snapshot(t.batchSize)
		round := t.runner.Run(ctx, batch)
		rounds = append(rounds, round)
		if !round.Success {
			break
		}
		t.queue.Drain(len(batch))
	}

	return rounds
}

// Exclusive runs fn while holding the round lock.
func (t *Trigger) Exclusive(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fn()
}
