package engine

import (
	"sort"
	"time"

	"habitline/internal/domain"
)

// TodayTasks returns the tasks due on now's weekday, in list order.
func TodayTasks(tasks []domain.Task, now time.Time) []domain.Task {
	out := []domain.Task{}
	for _, t := range tasks {
		if t.DueOn(now.Weekday()) {
			out = append(out, t)
		}
	}
	return out
}

func IsCompletedToday(completions []domain.TaskCompletion, taskID string, now time.Time) bool {
	return CompletedOn(completions, taskID, now.Format(domain.DateLayout))
}

func TodayCompletions(completions []domain.TaskCompletion, now time.Time) []domain.TaskCompletion {
	today := now.Format(domain.DateLayout)
	out := []domain.TaskCompletion{}
	for _, c := range completions {
		if domain.DateKey(c.CompletedAt) == today {
			out = append(out, c)
		}
	}
	return out
}

// Progress summarizes one day's due tasks.
type Progress struct {
	Done   int `json:"done"`
	Total  int `json:"total"`
	Reward int `json:"reward"`
	Earned int `json:"earned"`
}

func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// TodayProgress counts due tasks completed today and the reward earned on them.
func TodayProgress(state domain.AppState, now time.Time) Progress {
	var p Progress
	for _, t := range TodayTasks(state.Tasks, now) {
		p.Total++
		p.Reward += t.Reward
		if IsCompletedToday(state.Completions, t.ID, now) {
			p.Done++
		}
	}
	for _, c := range TodayCompletions(state.Completions, now) {
		p.Earned += c.Reward
	}
	return p
}

// DayReward is the reward earned on one calendar date.
type DayReward struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Reward int    `json:"reward"`
}

// RewardByDay groups completions by date key, newest first.
func RewardByDay(completions []domain.TaskCompletion) []DayReward {
	byDate := map[string]*DayReward{}
	for _, c := range completions {
		d := domain.DateKey(c.CompletedAt)
		r, ok := byDate[d]
		if !ok {
			r = &DayReward{Date: d}
			byDate[d] = r
		}
		r.Count++
		r.Reward += c.Reward
	}
	out := make([]DayReward, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func TotalReward(completions []domain.TaskCompletion) int {
	total := 0
	for _, c := range completions {
		total += c.Reward
	}
	return total
}
