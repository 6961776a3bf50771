// Package backend holds the interchangeable persistence and sync backends.
// Every backend stores the same three slices and exchanges them through
// domain.Document.
package backend

import (
	"context"
	"fmt"

	"habitline/internal/domain"
)

// Backend persists the tasks, completions and achievement slices.
type Backend interface {
	LoadTasks(ctx context.Context) ([]domain.Task, error)
	SaveTasks(ctx context.Context, tasks []domain.Task) error
	LoadCompletions(ctx context.Context) ([]domain.TaskCompletion, error)
	SaveCompletions(ctx context.Context, completions []domain.TaskCompletion) error
	LoadAchievements(ctx context.Context) ([]domain.AchievementRecord, error)
	SaveAchievements(ctx context.Context, records []domain.AchievementRecord) error
	Clear(ctx context.Context) error
	Export(ctx context.Context) (domain.Document, error)
	Import(ctx context.Context, doc domain.Document) error
}

type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
	KindWebDAV Kind = "webdav"
	KindDir    Kind = "dir"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSQLite, KindMemory, KindWebDAV, KindDir:
		return k, nil
	case "":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want sqlite|memory|webdav|dir)", s)
	}
}

// exportSlices reads the three slices one after another.
func exportSlices(ctx context.Context, b Backend) (domain.Document, error) {
	tasks, err := b.LoadTasks(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	completions, err := b.LoadCompletions(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	records, err := b.LoadAchievements(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Tasks: tasks, Completions: completions, Achievements: records}.Normalize(), nil
}

// importSlices writes tasks, completions and achievements in that order. A
// failure part way leaves the earlier slices written.
func importSlices(ctx context.Context, b Backend, doc domain.Document) error {
	if err := b.SaveTasks(ctx, doc.Tasks); err != nil {
		return fmt.Errorf("import tasks: %w", err)
	}
	if err := b.SaveCompletions(ctx, doc.Completions); err != nil {
		return fmt.Errorf("import completions: %w", err)
	}
	if err := b.SaveAchievements(ctx, doc.Achievements); err != nil {
		return fmt.Errorf("import achievements: %w", err)
	}
	return nil
}
