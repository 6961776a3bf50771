package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"habitline/internal/achievement"
	"habitline/internal/backend"
	"habitline/internal/domain"
)

// Store owns the in-memory AppState. Every mutation goes through Dispatch,
// which applies Reduce and queues the touched slices for persistence.
type Store struct {
	backend   backend.Backend
	persister *Persister
	env       Env
	logger    *log.Logger
	onPersist func(Slice, error)

	mu    sync.Mutex
	state domain.AppState
	subs  map[int]func(domain.AppState)
	next  int
}

type Option func(*Store)

func WithEnv(env Env) Option {
	return func(s *Store) { s.env = env }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPersistErrorHook calls fn after a background write fails and has been
// logged. fn runs on the persister goroutine.
func WithPersistErrorHook(fn func(Slice, error)) Option {
	return func(s *Store) { s.onPersist = fn }
}

func NewStore(b backend.Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		env:     DefaultEnv(),
		logger:  log.Default(),
		subs:    map[int]func(domain.AppState){},
		state: domain.AppState{
			Tasks:        []domain.Task{},
			Completions:  []domain.TaskCompletion{},
			Achievements: domain.Achievements{Unlocked: []domain.AchievementRecord{}},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.env.Catalog == nil {
		s.env.Catalog = achievement.DefaultCatalog()
	}
	s.persister = newPersister(b, s.logger, s.onPersist)
	return s
}

// Load replaces the in-memory state with the backend's slices. Nothing is
// written back.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.backend.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	completions, err := s.backend.LoadCompletions(ctx)
	if err != nil {
		return fmt.Errorf("load completions: %w", err)
	}
	records, err := s.backend.LoadAchievements(ctx)
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}

	s.mu.Lock()
	state := s.state
	for _, a := range []Action{SetTasks{tasks}, SetCompletions{completions}, SetAchievements{records}} {
		state, _ = Reduce(state, a, s.env)
	}
	state.Achievements.Pending = nil
	s.state = state
	s.mu.Unlock()

	s.notify(state)
	return nil
}

// Dispatch applies action and returns the resulting state. Persistence runs
// in the background; use Flush to wait for it.
func (s *Store) Dispatch(action Action) domain.AppState {
	s.mu.Lock()
	next, effects := Reduce(s.state, action, s.env)
	s.state = next
	s.persister.Enqueue(next, effects)
	s.mu.Unlock()

	s.notify(next)
	return next.Clone()
}

func (s *Store) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Pending returns the most recently unlocked achievement awaiting display.
func (s *Store) Pending() *domain.AchievementDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Achievements.Pending
}

func (s *Store) Catalog() achievement.Catalog { return s.env.Catalog }

func (s *Store) Env() Env { return s.env }

func (s *Store) Backend() backend.Backend { return s.backend }

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(domain.AppState)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(state domain.AppState) {
	s.mu.Lock()
	fns := make([]func(domain.AppState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}

func (s *Store) Flush(ctx context.Context) error {
	return s.persister.Flush(ctx)
}

// Close waits for queued writes and stops the persister.
func (s *Store) Close(ctx context.Context) error {
	return s.persister.Close(ctx)
}
