package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"habitline/internal/backend"
	"habitline/internal/domain"
)

var ErrPersisterClosed = errors.New("persister closed")

type persistJob struct {
	slice       Slice
	tasks       []domain.Task
	completions []domain.TaskCompletion
	records     []domain.AchievementRecord
	barrier     chan struct{}
}

// Persister writes state slices to a backend from one background goroutine,
// in the order they were enqueued. Enqueue never blocks on I/O. Failed writes
// are logged and dropped.
type Persister struct {
	backend backend.Backend
	logger  *log.Logger
	timeout time.Duration
	onError func(Slice, error)

	mu      sync.Mutex
	queue   []persistJob
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

func NewPersister(b backend.Backend, logger *log.Logger) *Persister {
	return newPersister(b, logger, nil)
}

func newPersister(b backend.Backend, logger *log.Logger, onError func(Slice, error)) *Persister {
	if logger == nil {
		logger = log.Default()
	}
	p := &Persister{
		backend: b,
		logger:  logger,
		timeout: 30 * time.Second,
		onError: onError,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules writes of the slices named in effects, taken from state.
func (p *Persister) Enqueue(state domain.AppState, effects Effects) {
	var jobs []persistJob
	for _, s := range effects.Slices() {
		j := persistJob{slice: s}
		switch s {
		case SliceTasks:
			j.tasks = state.Tasks
		case SliceCompletions:
			j.completions = state.Completions
		case SliceAchievements:
			j.records = state.Achievements.Unlocked
		}
		jobs = append(jobs, j)
	}
	if len(jobs) == 0 {
		return
	}
	if !p.push(jobs...) {
		p.logger.Printf("warning: persister closed, dropping %d write(s)", len(jobs))
	}
}

// Flush waits until every write enqueued before the call has been attempted.
func (p *Persister) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !p.push(persistJob{barrier: done}) {
		return ErrPersisterClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.signal()
	}
	p.mu.Unlock()

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) push(jobs ...persistJob) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, jobs...)
	p.signal()
	return true
}

func (p *Persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run() {
	defer close(p.stopped)
	for {
		p.mu.Lock()
		jobs := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, j := range jobs {
			p.do(j)
		}
		if len(jobs) > 0 {
			continue
		}
		if closed {
			return
		}
		<-p.wake
	}
}

func (p *Persister) do(j persistJob) {
	if j.barrier != nil {
		close(j.barrier)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var err error
	switch j.slice {
	case SliceTasks:
		err = p.backend.SaveTasks(ctx, j.tasks)
	case SliceCompletions:
		err = p.backend.SaveCompletions(ctx, j.completions)
	case SliceAchievements:
		err = p.backend.SaveAchievements(ctx, j.records)
	}
	if err != nil {
		p.logger.Printf("warning: persist %s failed: %v", j.slice, err)
		if p.onError != nil {
			p.onError(j.slice, err)
		}
	}
}
