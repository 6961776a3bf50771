package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"habitline/internal/domain"
)

// ErrNoDocument is returned by a DocumentStore when nothing has been written yet.
var ErrNoDocument = errors.New("no document")

// DocumentStore reads and writes one whole document under a fixed name.
type DocumentStore interface {
	Name() string
	ReadDocument(ctx context.Context) ([]byte, error)
	WriteDocument(ctx context.Context, data []byte) error
}

// DocumentBackend keeps all three slices in a single JSON document. Every
// save is a read-modify-write of the whole document; the last writer wins.
type DocumentBackend struct {
	store DocumentStore
	mu    sync.Mutex
}

func NewDocumentBackend(store DocumentStore) *DocumentBackend {
	return &DocumentBackend{store: store}
}

func (b *DocumentBackend) Store() DocumentStore { return b.store }

func (b *DocumentBackend) read(ctx context.Context) (domain.Document, error) {
	data, err := b.store.ReadDocument(ctx)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			return domain.Document{}.Normalize(), nil
		}
		return domain.Document{}, err
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", b.store.Name(), err)
	}
	return doc, nil
}

func (b *DocumentBackend) write(ctx context.Context, doc domain.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	return b.store.WriteDocument(ctx, data)
}

func (b *DocumentBackend) update(ctx context.Context, fn func(doc *domain.Document)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.read(ctx)
	if err != nil {
		return err
	}
	fn(&doc)
	return b.write(ctx, doc)
}

func (b *DocumentBackend) LoadTasks(ctx context.Context) ([]domain.Task, error) {
	doc, err := b.read(ctx)
	return doc.Tasks, err
}

func (b *DocumentBackend) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	return b.update(ctx, func(doc *domain.Document) { doc.Tasks = tasks })
}

func (b *DocumentBackend) LoadCompletions(ctx context.Context) ([]domain.TaskCompletion, error) {
	doc, err := b.read(ctx)
	return doc.Completions, err
}

func (b *DocumentBackend) SaveCompletions(ctx context.Context, completions []domain.TaskCompletion) error {
	return b.update(ctx, func(doc *domain.Document) { doc.Completions = completions })
}

func (b *DocumentBackend) LoadAchievements(ctx context.Context) ([]domain.AchievementRecord, error) {
	doc, err := b.read(ctx)
	return doc.Achievements, err
}

func (b *DocumentBackend) SaveAchievements(ctx context.Context, records []domain.AchievementRecord) error {
	return b.update(ctx, func(doc *domain.Document) { doc.Achievements = records })
}

func (b *DocumentBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write(ctx, domain.Document{})
}

func (b *DocumentBackend) Export(ctx context.Context) (domain.Document, error) {
	doc, err := b.read(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	doc.SyncTime, doc.Theme = nil, nil
	return doc, nil
}

// Import overwrites the document with doc's three slices in one write.
func (b *DocumentBackend) Import(ctx context.Context, doc domain.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write(ctx, domain.Document{
		Tasks:        doc.Tasks,
		Completions:  doc.Completions,
		Achievements: doc.Achievements,
		SyncTime:     doc.SyncTime,
	})
}
