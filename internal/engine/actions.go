package engine

import "habitline/internal/domain"

// Action is a state transition request handled by Reduce.
type Action interface {
	actionName() string
}

type SetTasks struct{ Tasks []domain.Task }

// AddTasks appends tasks, each under a freshly generated id.
type AddTasks struct{ Tasks []domain.Task }

type UpdateTask struct {
	ID    string
	Patch domain.TaskPatch
}

type DeleteTask struct{ ID string }

type CompleteTask struct{ TaskID string }

// UncompleteTask removes every completion of the task, not only today's.
type UncompleteTask struct{ TaskID string }

type SetCompletions struct{ Completions []domain.TaskCompletion }

type SetAchievements struct{ Records []domain.AchievementRecord }

type ClearPendingAchievement struct{}

func (SetTasks) actionName() string                { return "set_tasks" }
func (AddTasks) actionName() string                { return "add_tasks" }
func (UpdateTask) actionName() string              { return "update_task" }
func (DeleteTask) actionName() string              { return "delete_task" }
func (CompleteTask) actionName() string            { return "complete_task" }
func (UncompleteTask) actionName() string          { return "uncomplete_task" }
func (SetCompletions) actionName() string          { return "set_completions" }
func (SetAchievements) actionName() string         { return "set_achievements" }
func (ClearPendingAchievement) actionName() string { return "clear_pending_achievement" }

// Slice names one persisted part of AppState.
type Slice uint8

const (
	SliceTasks Slice = 1 << iota
	SliceCompletions
	SliceAchievements
)

func (s Slice) String() string {
	switch s {
	case SliceTasks:
		return "tasks"
	case SliceCompletions:
		return "completions"
	case SliceAchievements:
		return "achievements"
	default:
		return "unknown"
	}
}

// Effects is the set of slices a transition asks to persist.
type Effects uint8

func (e Effects) Has(s Slice) bool { return uint8(e)&uint8(s) != 0 }

func (e Effects) With(s Slice) Effects { return Effects(uint8(e) | uint8(s)) }

// Slices lists the slices in persistence order.
func (e Effects) Slices() []Slice {
	var out []Slice
	for _, s := range []Slice{SliceTasks, SliceCompletions, SliceAchievements} {
		if e.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
