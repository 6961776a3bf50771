package server

import (
	"time"

	"habitline/internal/achievement"
	"habitline/internal/domain"
	"habitline/internal/engine"
)

type CreateTaskRequest struct {
	Title       string `json:"title" minLength:"1"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Reward      int    `json:"reward" minimum:"1"`
	Type        string `json:"type,omitempty" enum:"daily,weekly"`
	Days        []int  `json:"days,omitempty"`
}

func (r CreateTaskRequest) task() (domain.Task, error) {
	typ, err := domain.ParseTaskType(r.Type)
	if err != nil {
		return domain.Task{}, domain.ValidationError{Field: "type", Reason: err.Error()}
	}
	t := domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Icon:        r.Icon,
		Reward:      r.Reward,
		Type:        typ,
		Days:        r.Days,
	}
	if typ == domain.TaskTypeDaily {
		t.Days = nil
	}
	return t, t.Validate()
}

type AchievementView struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	CompletedTime string `json:"completedTime,omitempty"`
	CompletionID  string `json:"completionId,omitempty"`
}

func definitionView(d *domain.AchievementDefinition) *AchievementView {
	if d == nil {
		return nil
	}
	return &AchievementView{ID: d.ID, Title: d.Title, Description: d.Description, Icon: d.Icon}
}

func achievementViews(c achievement.Catalog, records []domain.AchievementRecord) []AchievementView {
	out := make([]AchievementView, 0, len(records))
	for _, r := range records {
		v := AchievementView{ID: r.AchievementID, CompletedTime: r.CompletedTime, CompletionID: r.CompletionID}
		if d := c.Lookup(r.AchievementID); d != nil {
			v.Title, v.Description, v.Icon = d.Title, d.Description, d.Icon
		}
		out = append(out, v)
	}
	return out
}

type LevelView struct {
	Level int `json:"level"`
	Total int `json:"total"`
	Next  int `json:"next"`
}

type StateResponse struct {
	Tasks        []domain.Task           `json:"tasks"`
	Completions  []domain.TaskCompletion `json:"completions"`
	Achievements []AchievementView       `json:"achievements"`
	Pending      *AchievementView        `json:"pending,omitempty"`
	Unlocked     int                     `json:"unlocked"`
	Available    int                     `json:"available"`
	Level        LevelView               `json:"level"`
}

func stateResponse(c achievement.Catalog, s domain.AppState) StateResponse {
	p := c.CountUnlocked(s.Achievements.Unlocked)
	l := engine.LevelFor(engine.TotalReward(s.Completions))
	return StateResponse{
		Tasks:        nonNilSlice(s.Tasks),
		Completions:  nonNilSlice(s.Completions),
		Achievements: achievementViews(c, s.Achievements.Unlocked),
		Pending:      definitionView(s.Achievements.Pending),
		Unlocked:     p.Unlocked,
		Available:    p.Total,
		Level:        LevelView{Level: l.Level, Total: l.Total, Next: l.Next},
	}
}

type TodayTask struct {
	domain.Task
	Completed bool `json:"completed"`
}

type TodayResponse struct {
	Date   string      `json:"date"`
	Tasks  []TodayTask `json:"tasks"`
	Done   int         `json:"done"`
	Total  int         `json:"total"`
	Reward int         `json:"reward"`
	Earned int         `json:"earned"`
}

func todayResponse(s domain.AppState, now time.Time) TodayResponse {
	p := engine.TodayProgress(s, now)
	out := TodayResponse{
		Date:   now.Format(domain.DateLayout),
		Tasks:  []TodayTask{},
		Done:   p.Done,
		Total:  p.Total,
		Reward: p.Reward,
		Earned: p.Earned,
	}
	for _, t := range engine.TodayTasks(s.Tasks, now) {
		out.Tasks = append(out.Tasks, TodayTask{Task: t, Completed: engine.IsCompletedToday(s.Completions, t.ID, now)})
	}
	return out
}

type CompleteResponse struct {
	TaskID    string           `json:"taskId"`
	Completed bool             `json:"completed"`
	New       bool             `json:"new"`
	Unlocked  *AchievementView `json:"unlocked,omitempty"`
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
