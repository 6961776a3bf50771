package domain

import "time"

// TimestampLayout is the ISO-8601 layout completions and records are stored in.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date portion of TimestampLayout.
const DateLayout = "2006-01-02"

// TaskCompletion records that a task was done at CompletedAt. Reward is copied
// from the task at completion time and never changes afterwards.
type TaskCompletion struct {
	ID          string `json:"id"`
	TaskID      string `json:"taskId"`
	CompletedAt string `json:"completedAt"`
	Reward      int    `json:"reward"`
}

// AchievementRecord proves that an achievement was unlocked by CompletionID.
type AchievementRecord struct {
	AchievementID int    `json:"id"`
	CompletedTime string `json:"completedTime"`
	CompletionID  string `json:"completionId"`
}

// AchievementDefinition is static catalog data. Condition must be pure.
type AchievementDefinition struct {
	ID          int
	Title       string
	Description string
	Icon        string
	Condition   func(tasks []Task, completions []TaskCompletion) bool
}

type Achievements struct {
	Unlocked []AchievementRecord
	// Pending is the definition unlocked by the latest completion, awaiting
	// display. It is never persisted.
	Pending *AchievementDefinition
}

// AppState is the aggregate root owned by the engine store.
type AppState struct {
	Tasks        []Task
	Completions  []TaskCompletion
	Achievements Achievements
}

// Clone copies the slices so the result can be mutated without aliasing s.
func (s AppState) Clone() AppState {
	out := AppState{
		Tasks:       make([]Task, len(s.Tasks)),
		Completions: make([]TaskCompletion, len(s.Completions)),
		Achievements: Achievements{
			Unlocked: make([]AchievementRecord, len(s.Achievements.Unlocked)),
			Pending:  s.Achievements.Pending,
		},
	}
	copy(out.Tasks, s.Tasks)
	copy(out.Completions, s.Completions)
	copy(out.Achievements.Unlocked, s.Achievements.Unlocked)
	return out
}

// FormatTimestamp renders t in the stored layout, keeping t's zone.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp accepts the stored layout, RFC3339 with or without fraction,
// and bare dates (interpreted in the local zone).
func ParseTimestamp(ts string) (time.Time, error) {
	if len(ts) == len(DateLayout) {
		return time.ParseInLocation(DateLayout, ts, time.Local)
	}
	return time.Parse(time.RFC3339Nano, ts)
}

// DateKey returns the calendar-date portion of an ISO timestamp.
func DateKey(ts string) string {
	if len(ts) < len(DateLayout) {
		return ts
	}
	return ts[:len(DateLayout)]
}
