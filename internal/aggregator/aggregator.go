package aggregator

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/statustally/internal/poller"
	"github.com/jpalmerr/statustally/internal/queue"
)

// Updater receives validated success counts. Implementations must be safe
// for concurrent use.
type Updater interface {
	Update(app, version string, successCount int64)
}

// Pool is a fixed-size set of aggregator workers.
//
// Workers take outcomes until the queue is closed and empty. Each outcome is
// marked done exactly once, whether it was folded, discarded, or panicked.
type Pool struct {
	in        *queue.Queue[poller.Outcome]
	sink      Updater
	workers   int
	logger    *slog.Logger
	wg        sync.WaitGroup
	startOnce sync.Once
}

// NewPool creates an aggregator [Pool] with at least one worker.
func NewPool(in *queue.Queue[poller.Outcome], sink Updater, workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		in:      in,
		sink:    sink,
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. Non-blocking and idempotent.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(id int) {
				defer p.wg.Done()
				for {
					outcome, ok := p.in.Take()
					if !ok {
						p.logger.Debug("aggregator stopped", "worker", id)
						return
					}
					p.process(outcome)
				}
			}(i)
		}
	})
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) process(o poller.Outcome) {
	defer p.in.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("aggregator panic",
				"correlation_id", uuid.NewString(),
				"server", o.Server,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if o.Kind != poller.KindSuccess {
		p.logger.Error("discarding non-success outcome", "server", o.Server, "outcome", string(o.Kind))
		return
	}
	if err := o.Record.Validate(); err != nil {
		p.logger.Error("missing app_name/version in server response",
			"server", o.Server,
			"error", err.Error(),
		)
		return
	}

	p.sink.Update(o.Record.App(), o.Record.Ver(), o.Record.Count())
}
