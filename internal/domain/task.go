package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type TaskType string

const (
	TaskTypeDaily  TaskType = "daily"
	TaskTypeWeekly TaskType = "weekly"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeDaily, TaskTypeWeekly:
		return true
	default:
		return false
	}
}

func ParseTaskType(input string) (TaskType, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return TaskTypeDaily, nil
	}
	t := TaskType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid task type: %q", input)
	}
	return t, nil
}

// Task is a user-defined recurring unit of work.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Reward      int      `json:"reward"`
	Type        TaskType `json:"type"`
	Days        []int    `json:"days,omitempty"`
	// Progress is carried through documents untouched; new tasks start at 0.
	Progress    int      `json:"progress"`
}

// DueOn reports whether the task is scheduled for the given weekday.
// Weekly tasks without days are never due.
func (t Task) DueOn(day time.Weekday) bool {
	switch t.Type {
	case TaskTypeDaily:
		return true
	case TaskTypeWeekly:
		for _, d := range t.Days {
			if d == int(day) {
				return true
			}
		}
	}
	return false
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if t.Reward <= 0 {
		return ValidationError{Field: "reward", Reason: "must be positive"}
	}
	if !t.Type.IsValid() {
		return ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", t.Type)}
	}
	if t.Type == TaskTypeWeekly && len(t.Days) == 0 {
		return ValidationError{Field: "days", Reason: "weekly tasks need at least one day"}
	}
	for _, d := range t.Days {
		if d < 0 || d > 6 {
			return ValidationError{Field: "days", Reason: fmt.Sprintf("day %d out of range 0..6", d)}
		}
	}
	return nil
}

// TaskPatch carries the fields of an UpdateTask action. Nil fields are left alone.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Reward      *int      `json:"reward,omitempty"`
	Type        *TaskType `json:"type,omitempty"`
	Days        *[]int    `json:"days,omitempty"`
}

// Apply shallow-merges the patch into t.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Icon != nil {
		t.Icon = *p.Icon
	}
	if p.Reward != nil {
		t.Reward = *p.Reward
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Days != nil {
		t.Days = append([]int(nil), (*p.Days)...)
	}
	if t.Type == TaskTypeDaily {
		t.Days = nil
	}
	return t
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Icon == nil &&
		p.Reward == nil && p.Type == nil && p.Days == nil
}

// FindTask returns the index of the task with id, or -1.
func FindTask(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// ResolveTaskID matches ref against task ids, accepting a unique prefix.
func ResolveTaskID(tasks []Task, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("task id is required")
	}
	var match string
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("task %s: %w", ref, ErrNotFound)
	}
	return match, nil
}
