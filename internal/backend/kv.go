package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"habitline/internal/domain"
	"habitline/internal/storage"
)

// Keys each slice is stored under. They match the browser storage keys of the
// web app so data copied from it lines up.
const (
	KeyTasks        = "HABIT_TRACKER_tasks"
	KeyCompletions  = "HABIT_TRACKER_task_completions"
	KeyAchievements = "HABIT_TRACKER_achievements"
)

// KVBackend stores each slice as a JSON array under its own key.
type KVBackend struct {
	kv storage.KV
}

func NewKVBackend(kv storage.KV) *KVBackend {
	return &KVBackend{kv: kv}
}

func loadSlice[T any](ctx context.Context, kv storage.KV, key string) ([]T, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if !ok || len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func saveSlice[T any](ctx context.Context, kv storage.KV, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}

func (b *KVBackend) LoadTasks(ctx context.Context) ([]domain.Task, error) {
	return loadSlice[domain.Task](ctx, b.kv, KeyTasks)
}

func (b *KVBackend) SaveTasks(ctx context.Context, tasks []domain.Task) error {
	return saveSlice(ctx, b.kv, KeyTasks, tasks)
}

func (b *KVBackend) LoadCompletions(ctx context.Context) ([]domain.TaskCompletion, error) {
	return loadSlice[domain.TaskCompletion](ctx, b.kv, KeyCompletions)
}

func (b *KVBackend) SaveCompletions(ctx context.Context, completions []domain.TaskCompletion) error {
	return saveSlice(ctx, b.kv, KeyCompletions, completions)
}

func (b *KVBackend) LoadAchievements(ctx context.Context) ([]domain.AchievementRecord, error) {
	return loadSlice[domain.AchievementRecord](ctx, b.kv, KeyAchievements)
}

func (b *KVBackend) SaveAchievements(ctx context.Context, records []domain.AchievementRecord) error {
	return saveSlice(ctx, b.kv, KeyAchievements, records)
}

func (b *KVBackend) Clear(ctx context.Context) error {
	for _, key := range []string{KeyTasks, KeyCompletions, KeyAchievements} {
		if err := b.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (b *KVBackend) Export(ctx context.Context) (domain.Document, error) {
	return exportSlices(ctx, b)
}

// Import replaces all three slices. Stores that support it apply the three
// writes atomically.
func (b *KVBackend) Import(ctx context.Context, doc domain.Document) error {
	if a, ok := b.kv.(storage.Atomic); ok {
		return a.Atomic(ctx, func(kv storage.KV) error {
			return importSlices(ctx, NewKVBackend(kv), doc)
		})
	}
	return importSlices(ctx, b, doc)
}
