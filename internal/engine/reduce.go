package engine

import (
	"time"

	"github.com/google/uuid"

	"habitline/internal/achievement"
	"habitline/internal/domain"
)

// Env supplies the non-deterministic inputs of Reduce.
type Env struct {
	Now     func() time.Time
	NewID   func() string
	Catalog achievement.Catalog
}

// DefaultEnv uses the process clock, random UUIDs and the built-in catalog.
func DefaultEnv() Env {
	return Env{
		Now:     time.Now,
		NewID:   func() string { return uuid.NewString() },
		Catalog: achievement.DefaultCatalog(),
	}
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// Reduce applies action to state and returns the next state plus the slices
// that need persisting. state is not modified.
func Reduce(state domain.AppState, action Action, env Env) (domain.AppState, Effects) {
	switch a := action.(type) {
	case SetTasks:
		next := state.Clone()
		next.Tasks = append([]domain.Task{}, a.Tasks...)
		return next, Effects(0).With(SliceTasks)

	case AddTasks:
		next := state.Clone()
		for _, t := range a.Tasks {
			t.ID = env.newID()
			t.Progress = 0
			next.Tasks = append(next.Tasks, t)
		}
		return next, Effects(0).With(SliceTasks)

	case UpdateTask:
		i := domain.FindTask(state.Tasks, a.ID)
		if i < 0 {
			return state, 0
		}
		next := state.Clone()
		next.Tasks[i] = a.Patch.Apply(next.Tasks[i])
		next.Tasks[i].ID = a.ID
		return next, Effects(0).With(SliceTasks)

	case DeleteTask:
		next := state.Clone()
		kept := next.Tasks[:0]
		for _, t := range next.Tasks {
			if t.ID != a.ID {
				kept = append(kept, t)
			}
		}
		next.Tasks = kept
		return next, Effects(0).With(SliceTasks)

	case CompleteTask:
		return completeTask(state, a.TaskID, env)

	case UncompleteTask:
		return uncompleteTask(state, a.TaskID)

	case SetCompletions:
		next := state.Clone()
		next.Completions = append([]domain.TaskCompletion{}, a.Completions...)
		return next, Effects(0).With(SliceCompletions)

	case SetAchievements:
		next := state.Clone()
		next.Achievements.Unlocked = append([]domain.AchievementRecord{}, a.Records...)
		return next, Effects(0).With(SliceAchievements)

	case ClearPendingAchievement:
		next := state.Clone()
		next.Achievements.Pending = nil
		return next, 0

	default:
		return state, 0
	}
}

// CompletedOn reports whether taskID has a completion on the given date key.
func CompletedOn(completions []domain.TaskCompletion, taskID, date string) bool {
	for _, c := range completions {
		if c.TaskID == taskID && domain.DateKey(c.CompletedAt) == date {
			return true
		}
	}
	return false
}

func completeTask(state domain.AppState, taskID string, env Env) (domain.AppState, Effects) {
	i := domain.FindTask(state.Tasks, taskID)
	if i < 0 {
		return state, 0
	}
	now := domain.FormatTimestamp(env.now())
	if CompletedOn(state.Completions, taskID, domain.DateKey(now)) {
		return state, 0
	}

	next := state.Clone()
	completion := domain.TaskCompletion{
		ID:          env.newID(),
		TaskID:      taskID,
		CompletedAt: now,
		Reward:      state.Tasks[i].Reward,
	}
	next.Completions = append(next.Completions, completion)
	effects := Effects(0).With(SliceCompletions)

	satisfied := achievement.Evaluate(env.Catalog, next.Tasks, next.Completions)
	unlock := achievement.SelectUnlock(env.Catalog, satisfied, next.Achievements.Unlocked)
	next.Achievements.Pending = unlock
	if unlock != nil {
		next.Achievements.Unlocked = append(next.Achievements.Unlocked, domain.AchievementRecord{
			AchievementID: unlock.ID,
			CompletedTime: now,
			CompletionID:  completion.ID,
		})
		effects = effects.With(SliceAchievements)
	}
	return next, effects
}

// uncompleteTask drops all completions of taskID, then revokes every record
// whose proof completion no longer exists.
func uncompleteTask(state domain.AppState, taskID string) (domain.AppState, Effects) {
	next := state.Clone()

	remaining := next.Completions[:0]
	ids := make(map[string]struct{}, len(next.Completions))
	for _, c := range next.Completions {
		if c.TaskID == taskID {
			continue
		}
		remaining = append(remaining, c)
		ids[c.ID] = struct{}{}
	}
	next.Completions = remaining

	unlocked := next.Achievements.Unlocked[:0]
	for _, r := range next.Achievements.Unlocked {
		if _, ok := ids[r.CompletionID]; ok {
			unlocked = append(unlocked, r)
		}
	}
	next.Achievements.Unlocked = unlocked

	return next, Effects(0).With(SliceCompletions).With(SliceAchievements)
}
