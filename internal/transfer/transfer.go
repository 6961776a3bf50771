// Package transfer implements export, import and remote sync of the three
// state slices. Every operation reports a Result instead of an error so
// callers can show the message as is.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"habitline/internal/backend"
	"habitline/internal/domain"
	"habitline/internal/engine"
)

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Theme is set by Pull and ImportJSON when the document carries one.
	Theme string `json:"theme,omitempty"`
}

func ok(msg string) Result { return Result{Success: true, Message: msg} }

func failed(op string, err error) Result {
	return Result{Message: fmt.Sprintf("%s failed: %s", op, Describe(err))}
}

// Describe renders err for a person, by error kind.
func Describe(err error) string {
	var (
		verr domain.ValidationError
		cerr domain.ConnectivityError
		perr domain.PermissionError
	)
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, backend.ErrNoDocument):
		return "no backup found"
	case errors.As(err, &verr):
		return "invalid data: " + verr.Error()
	case errors.As(err, &cerr):
		return cerr.Error()
	case errors.As(err, &perr):
		return perr.Error() + " (select the directory again)"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	default:
		return err.Error()
	}
}

// Recorder stores the time of the last successful push and pull.
type Recorder interface {
	RecordSync(t time.Time) error
	RecordRestore(t time.Time) error
}

// Pinger checks that a remote is reachable with the configured credentials.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service runs transfers against the Store's backend. Queued writes are
// flushed before the backend is read or overwritten, and the Store is
// reloaded after every overwrite.
type Service struct {
	store    *engine.Store
	recorder Recorder
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*Service)

func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.logger = l } }

func New(store *engine.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) export(ctx context.Context) (domain.Document, error) {
	if err := s.store.Flush(ctx); err != nil {
		return domain.Document{}, fmt.Errorf("flush: %w", err)
	}
	return s.store.Backend().Export(ctx)
}

// replace overwrites the backend with doc and reloads the Store from it.
func (s *Service) replace(ctx context.Context, doc domain.Document) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := s.store.Backend().Import(ctx, doc); err != nil {
		return err
	}
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// ExportJSON returns the current slices as an indented document.
func (s *Service) ExportJSON(ctx context.Context) ([]byte, Result) {
	doc, err := s.export(ctx)
	if err != nil {
		return nil, failed("export", err)
	}
	data, err := doc.Encode()
	if err != nil {
		return nil, failed("export", err)
	}
	return data, ok("export succeeded")
}

// ImportJSON validates data and overwrites all three slices with it. Invalid
// input leaves the current state untouched. The document's theme, if any, is
// reported in the result.
func (s *Service) ImportJSON(ctx context.Context, data []byte) Result {
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return failed("import", err)
	}
	if err := s.replace(ctx, doc); err != nil {
		return failed("import", err)
	}
	res := ok("import succeeded")
	if doc.Theme != nil {
		res.Theme = *doc.Theme
	}
	return res
}

// Push writes the current slices, stamped with the sync time, to remote.
func (s *Service) Push(ctx context.Context, remote backend.DocumentStore) Result {
	doc, err := s.export(ctx)
	if err != nil {
		return failed("sync", err)
	}
	now := s.now()
	stamp := domain.FormatTimestamp(now.UTC())
	doc.SyncTime = &stamp

	data, err := doc.Encode()
	if err != nil {
		return failed("sync", err)
	}
	if err := remote.WriteDocument(ctx, data); err != nil {
		return failed("sync", err)
	}
	s.record(func(r Recorder) error { return r.RecordSync(now) })
	return ok(fmt.Sprintf("synced to %s", remote.Name()))
}

// Pull replaces the local slices with the document stored on remote.
func (s *Service) Pull(ctx context.Context, remote backend.DocumentStore) Result {
	data, err := remote.ReadDocument(ctx)
	if err != nil {
		return failed("restore", err)
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return failed("restore", err)
	}
	if err := s.replace(ctx, doc); err != nil {
		return failed("restore", err)
	}
	s.record(func(r Recorder) error { return r.RecordRestore(s.now()) })

	res := ok(fmt.Sprintf("restored from %s", remote.Name()))
	if doc.Theme != nil {
		res.Theme = *doc.Theme
	}
	return res
}

func (s *Service) TestConnection(ctx context.Context, p Pinger) Result {
	if err := p.Ping(ctx); err != nil {
		return failed("connection", err)
	}
	return ok("connection succeeded")
}

// Clear empties every slice in the backend and the Store.
func (s *Service) Clear(ctx context.Context) Result {
	if err := s.store.Flush(ctx); err != nil {
		return failed("clear", err)
	}
	if err := s.store.Backend().Clear(ctx); err != nil {
		return failed("clear", err)
	}
	if err := s.store.Load(ctx); err != nil {
		return failed("clear", err)
	}
	return ok("all data cleared")
}

func (s *Service) record(fn func(Recorder) error) {
	if s.recorder == nil {
		return
	}
	if err := fn(s.recorder); err != nil {
		s.logger.Printf("warning: record sync metadata: %v", err)
	}
}
