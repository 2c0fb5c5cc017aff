package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

var ErrClosed = errors.New("worker pool closed")

// Pool runs fire-and-forget tasks on a fixed number of goroutines. The
// queue is bounded; Submit never blocks the caller.
type Pool struct {
	name    string
	workers int
	tasks   chan Task
	log     zerolog.Logger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
}

func NewPool(name string, workers, buffer int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		name:    name,
		workers: workers,
		tasks:   make(chan Task, buffer),
		log:     log.With().Str("component", "worker").Str("pool", name).Logger(),
	}
}

// Start launches the workers. Tasks receive a context that outlives the
// request that queued them and is cancelled by Shutdown.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for t := range p.tasks {
				p.run(ctx, t)
			}
		}()
	}
}

func (p *Pool) run(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := t(ctx); err != nil {
		p.log.Warn().Err(err).Msg("task failed")
	}
}

// Submit queues t. It returns false when the queue is full or the pool is
// shut down; the task is dropped in that case.
func (p *Pool) Submit(t Task) bool {
	if p == nil || t == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- t:
		return true
	default:
		p.log.Warn().Msg("queue full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or
// for ctx to expire, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	close(p.tasks)
	cancel := p.cancel
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
	if cancel != nil {
		cancel()
	}
	return nil
}
