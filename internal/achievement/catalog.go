package achievement

import (
	"sort"

	"habitline/internal/domain"
)

// Well-known catalog ids.
const (
	FirstCompletion = 1
	SevenDayStreak  = 2
)

var (
	healthKeywords = []string{"健康", "运动", "health", "exercise", "workout"}
	studyKeywords  = []string{"学习", "阅读", "study", "studying", "read", "reading"}
)

// Catalog is an ordered set of achievement definitions.
type Catalog []domain.AchievementDefinition

// NewCatalog returns defs sorted by id.
func NewCatalog(defs ...domain.AchievementDefinition) Catalog {
	c := make(Catalog, len(defs))
	copy(c, defs)
	sort.SliceStable(c, func(i, j int) bool { return c[i].ID < c[j].ID })
	return c
}

// Lookup returns the definition with id, or nil.
func (c Catalog) Lookup(id int) *domain.AchievementDefinition {
	for i := range c {
		if c[i].ID == id {
			return &c[i]
		}
	}
	return nil
}

// DefaultCatalog returns the built-in achievement definitions.
func DefaultCatalog() Catalog {
	return NewCatalog(
		def(FirstCompletion, "Getting Started", "Complete your first task", "🏅", func(_ []domain.Task, cs []domain.TaskCompletion) bool {
			return len(cs) == 1
		}),
		streak(SevenDayStreak, "Persistence", "Complete tasks 7 days in a row", "🔥", 7, nil),
		count(3, "Task Master", "Complete 100 tasks", "👑", 100),
		def(4, "Early Bird", "Complete a task before 6am", "🌅", func(_ []domain.Task, cs []domain.TaskCompletion) bool {
			return InTimeRange(timestamps(cs), 0, 6)
		}),
		weekend(5, "Weekend Warrior", "Complete 10 tasks on weekends", "🎯", 10),
		keyword(6, "Health Pioneer", "Complete 50 health tasks", "💪", 50, healthKeywords),
		keyword(7, "Study Buff", "Complete 30 study tasks", "📚", 30, studyKeywords),
		perDay(8, "Efficiency Expert", "Complete 5 tasks in one day", "⏱️", 5),
		streak(9, "Early Champion", "Complete a task before 7am 30 days in a row", "🌞", 30, beforeHour(7)),
		days(10, "Habit Builder", "Complete tasks on 30 different days", "📅", 30),
		taskCount(11, "Task Collector", "Create 50 tasks", "📋", 50),
		def(12, "Perfectionist", "Complete every task 7 days in a row", "🌟", func(ts []domain.Task, cs []domain.TaskCompletion) bool {
			return HasPerfectRun(ts, cs, 7)
		}),
		streak(13, "Early Challenger", "Complete a task before 6am 7 days in a row", "⏰", 7, beforeHour(6)),
		weekend(14, "Weekend Expert", "Complete 20 tasks on weekends", "🎊", 20),
		keyword(15, "Healthy Living", "Complete 100 health tasks", "🥗", 100, healthKeywords),
		keyword(16, "Lifelong Learner", "Complete 100 study tasks", "🎓", 100, studyKeywords),
		perDay(17, "Efficiency Master", "Complete 10 tasks in one day", "🚀", 10),
		streak(18, "Early King", "Complete a task before 7am 100 days in a row", "👑", 100, beforeHour(7)),
		days(19, "Habit Master", "Complete tasks on 100 different days", "📆", 100),
		taskCount(20, "Task Hoarder", "Create 100 tasks", "📚", 100),
	)
}

func def(id int, title, desc, icon string, cond func([]domain.Task, []domain.TaskCompletion) bool) domain.AchievementDefinition {
	return domain.AchievementDefinition{ID: id, Title: title, Description: desc, Icon: icon, Condition: cond}
}

func count(id int, title, desc, icon string, n int) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(_ []domain.Task, cs []domain.TaskCompletion) bool {
		return len(cs) >= n
	})
}

func taskCount(id int, title, desc, icon string, n int) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(ts []domain.Task, _ []domain.TaskCompletion) bool {
		return len(ts) >= n
	})
}

// streak unlocks when completions passing keep (all, if nil) span n consecutive days.
func streak(id int, title, desc, icon string, n int, keep func(domain.TaskCompletion) bool) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(_ []domain.Task, cs []domain.TaskCompletion) bool {
		if keep != nil {
			cs = filterCompletions(cs, keep)
		}
		return HasConsecutiveDays(timestamps(cs), n)
	})
}

func weekend(id int, title, desc, icon string, n int) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(_ []domain.Task, cs []domain.TaskCompletion) bool {
		return len(filterCompletions(cs, onWeekend)) >= n
	})
}

func keyword(id int, title, desc, icon string, n int, keywords []string) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(ts []domain.Task, cs []domain.TaskCompletion) bool {
		return len(filterCompletions(cs, titleMatcher(ts, keywords...))) >= n
	})
}

func perDay(id int, title, desc, icon string, n int) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(_ []domain.Task, cs []domain.TaskCompletion) bool {
		return MaxPerDay(cs) >= n
	})
}

func days(id int, title, desc, icon string, n int) domain.AchievementDefinition {
	return def(id, title, desc, icon, func(_ []domain.Task, cs []domain.TaskCompletion) bool {
		return activeDays(cs) >= n
	})
}
