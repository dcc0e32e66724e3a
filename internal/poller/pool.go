package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/statustally/internal/queue"
)

// Target is a pollable server endpoint.
type Target interface {
	// String returns the server identifier used in logs and outcomes.
	String() string

	// Poke issues one status request. err is non-nil for transport failures,
	// in which case statusCode is 0.
	Poke(ctx context.Context) (statusCode int, body []byte, err error)
}

// Job is one pending poll of a [Target].
type Job struct {
	Target  Target
	Attempt int
}

// Pool is a fixed-size set of poller workers.
//
// Workers take jobs from the input queue until it is closed and empty.
// Successful outcomes are put on the output queue; retryable failures are put
// back on the input queue with Attempt incremented. Every taken job is marked
// done exactly once, after any re-queue, so the input queue's Join barrier
// only resolves when no retry is outstanding.
type Pool struct {
	in          *queue.Queue[Job]
	out         *queue.Queue[Outcome]
	workers     int
	maxAttempts int
	logger      *slog.Logger
	onOutcome   func(Outcome)
	wg          sync.WaitGroup
	startOnce   sync.Once
}

// NewPool creates a poller [Pool].
//
// Parameters:
//   - in: queue of jobs to poll; retries are put back here
//   - out: queue receiving [KindSuccess] outcomes
//   - workers: number of concurrent workers, at least 1
//   - maxAttempts: attempts per server before giving up; 0 or less retries forever
//   - logger: logger for per-attempt events
//   - onOutcome: optional hook called with every classified outcome; must be
//     safe for concurrent use
func NewPool(in *queue.Queue[Job], out *queue.Queue[Outcome], workers, maxAttempts int, logger *slog.Logger, onOutcome func(Outcome)) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		in:          in,
		out:         out,
		workers:     workers,
		maxAttempts: maxAttempts,
		logger:      logger,
		onOutcome:   onOutcome,
	}
}

// Start launches the workers. Non-blocking and idempotent.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(id int) {
				defer p.wg.Done()
				p.run(ctx, id)
			}(i)
		}
	})
}

// Wait blocks until every worker has exited. Workers exit once the input
// queue is closed and drained.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		job, ok := p.in.Take()
		if !ok {
			p.logger.Debug("poller stopped", "worker", id)
			return
		}
		p.process(ctx, job)
	}
}

// process handles one taken job. The deferred Done runs after the panic
// handler so a crashing job still releases the barrier.
func (p *Pool) process(ctx context.Context, job Job) {
	defer p.in.Done()
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("poller panic",
				"correlation_id", correlationID,
				"server", job.Target.String(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			p.emit(Outcome{
				Server:    job.Target.String(),
				Kind:      KindGaveUp,
				Attempt:   job.Attempt,
				CheckedAt: time.Now(),
				Error:     fmt.Errorf("poller panic (correlation_id: %s)", correlationID),
			})
		}
	}()

	if err := ctx.Err(); err != nil {
		p.giveUp(job, 0, fmt.Errorf("run cancelled: %w", err))
		return
	}

	server := job.Target.String()
	p.logger.Debug("poking server", "server", server, "attempt", job.Attempt)

	code, body, err := job.Target.Poke(ctx)
	switch {
	case err != nil:
		p.retry(ctx, job, code, err)

	case code == http.StatusOK:
		rec, err := DecodeRecord(body)
		if err != nil {
			p.emit(Outcome{
				Server:     server,
				Kind:       KindDecodeError,
				StatusCode: code,
				Attempt:    job.Attempt,
				CheckedAt:  time.Now(),
				Error:      err,
			})
			return
		}
		outcome := Outcome{
			Server:     server,
			Kind:       KindSuccess,
			Record:     rec,
			StatusCode: code,
			Attempt:    job.Attempt,
			CheckedAt:  time.Now(),
		}
		if err := p.out.Put(outcome); err != nil {
			p.logger.Error("failed to forward result", "server", server, "error", err.Error())
			return
		}
		p.emit(outcome)

	case code == http.StatusNotFound:
		p.emit(Outcome{
			Server:     server,
			Kind:       KindNotFound,
			StatusCode: code,
			Attempt:    job.Attempt,
			CheckedAt:  time.Now(),
		})

	default:
		p.retry(ctx, job, code, fmt.Errorf("unexpected status %d", code))
	}
}

// retry re-queues job for another attempt, or gives up once the attempt
// limit is reached or the run is cancelled.
func (p *Pool) retry(ctx context.Context, job Job, code int, cause error) {
	if ctx.Err() != nil {
		p.giveUp(job, code, fmt.Errorf("run cancelled: %w", cause))
		return
	}
	if p.maxAttempts > 0 && job.Attempt >= p.maxAttempts {
		p.giveUp(job, code, fmt.Errorf("exhausted %d attempts: %w", p.maxAttempts, cause))
		return
	}

	p.emit(Outcome{
		Server:     job.Target.String(),
		Kind:       KindOtherError,
		StatusCode: code,
		Attempt:    job.Attempt,
		CheckedAt:  time.Now(),
		Error:      cause,
	})

	next := Job{Target: job.Target, Attempt: job.Attempt + 1}
	if err := p.in.Put(next); err != nil {
		p.giveUp(job, code, errors.Join(cause, err))
	}
}

func (p *Pool) giveUp(job Job, code int, cause error) {
	p.emit(Outcome{
		Server:     job.Target.String(),
		Kind:       KindGaveUp,
		StatusCode: code,
		Attempt:    job.Attempt,
		CheckedAt:  time.Now(),
		Error:      cause,
	})
}

// emit logs an outcome and hands it to the hook.
func (p *Pool) emit(o Outcome) {
	attrs := []any{
		"server", o.Server,
		"outcome", string(o.Kind),
		"attempt", o.Attempt,
	}
	if o.StatusCode != 0 {
		attrs = append(attrs, "status_code", o.StatusCode)
	}
	if o.Error != nil {
		attrs = append(attrs, "error", o.Error.Error())
	}

	switch o.Kind {
	case KindSuccess:
		p.logger.Debug("poll succeeded", attrs...)
	case KindNotFound:
		p.logger.Error("server has no status endpoint", attrs...)
	case KindOtherError:
		p.logger.Warn("poll failed, retrying later", attrs...)
	case KindDecodeError:
		p.logger.Error("undecodable status body", attrs...)
	case KindGaveUp:
		p.logger.Error("giving up on server", attrs...)
	}

	if p.onOutcome != nil {
		p.invokeHookSafe(o)
	}
}

// invokeHookSafe calls the outcome hook with panic recovery.
func (p *Pool) invokeHookSafe(o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("outcome callback panicked",
				"panic", r,
				"server", o.Server,
			)
		}
	}()
	p.onOutcome(o)
}
