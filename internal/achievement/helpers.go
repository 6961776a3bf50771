package achievement

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"habitline/internal/domain"
)

// HasConsecutiveDays reports whether the timestamps cover a run of at least n
// consecutive calendar dates. Several timestamps on one date count once.
func HasConsecutiveDays(timestamps []string, n int) bool {
	dates := distinctDates(timestamps)
	if len(dates) == 0 {
		return false
	}
	if n <= 1 {
		return true
	}

	run := 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

// distinctDates collapses timestamps to their date portion, dedupes and sorts
// ascending. Dates are parsed in UTC so the day arithmetic ignores DST.
func distinctDates(timestamps []string) []time.Time {
	seen := make(map[string]struct{}, len(timestamps))
	var keys []string
	for _, ts := range timestamps {
		k := domain.DateKey(ts)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		d, err := time.Parse(domain.DateLayout, k)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// InTimeRange reports whether any timestamp's local hour is in [startHour, endHour).
func InTimeRange(timestamps []string, startHour, endHour int) bool {
	for _, ts := range timestamps {
		h, ok := localHour(ts)
		if ok && h >= startHour && h < endHour {
			return true
		}
	}
	return false
}

func localHour(ts string) (int, bool) {
	t, err := domain.ParseTimestamp(ts)
	if err != nil {
		return 0, false
	}
	return t.Local().Hour(), true
}

func localWeekday(ts string) (time.Weekday, bool) {
	t, err := domain.ParseTimestamp(ts)
	if err != nil {
		return 0, false
	}
	return t.Local().Weekday(), true
}

func timestamps(completions []domain.TaskCompletion) []string {
	out := make([]string, len(completions))
	for i, c := range completions {
		out[i] = c.CompletedAt
	}
	return out
}

// GroupByDay buckets completions by the date portion of CompletedAt.
func GroupByDay(completions []domain.TaskCompletion) map[string][]domain.TaskCompletion {
	out := map[string][]domain.TaskCompletion{}
	for _, c := range completions {
		k := domain.DateKey(c.CompletedAt)
		out[k] = append(out[k], c)
	}
	return out
}

// MaxPerDay returns the largest number of completions recorded on one date.
func MaxPerDay(completions []domain.TaskCompletion) int {
	best := 0
	for _, list := range GroupByDay(completions) {
		if len(list) > best {
			best = len(list)
		}
	}
	return best
}

// AllTasksCompletedDays returns the sorted dates on which every task in the
// current task list was completed. Tasks deleted since are not considered, so
// the answer for past days moves when the task list changes.
func AllTasksCompletedDays(tasks []domain.Task, completions []domain.TaskCompletion) []string {
	if len(tasks) == 0 {
		return nil
	}
	var days []string
	for day, list := range GroupByDay(completions) {
		done := make(map[string]struct{}, len(list))
		for _, c := range list {
			done[c.TaskID] = struct{}{}
		}
		all := true
		for _, t := range tasks {
			if _, ok := done[t.ID]; !ok {
				all = false
				break
			}
		}
		if all {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// HasPerfectRun reports whether n dates in a row, among the dates that have
// any completion, are days on which every current task was completed. Dates
// without completions do not break the run; an imperfect active date does.
func HasPerfectRun(tasks []domain.Task, completions []domain.TaskCompletion, n int) bool {
	if len(tasks) == 0 || n <= 0 {
		return false
	}
	perfect := make(map[string]bool)
	for _, d := range AllTasksCompletedDays(tasks, completions) {
		perfect[d] = true
	}
	byDay := GroupByDay(completions)
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	run := 0
	for _, d := range days {
		if !perfect[d] {
			run = 0
			continue
		}
		run++
		if run >= n {
			return true
		}
	}
	return false
}

func filterCompletions(completions []domain.TaskCompletion, keep func(domain.TaskCompletion) bool) []domain.TaskCompletion {
	var out []domain.TaskCompletion
	for _, c := range completions {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func beforeHour(hour int) func(domain.TaskCompletion) bool {
	return func(c domain.TaskCompletion) bool {
		h, ok := localHour(c.CompletedAt)
		return ok && h < hour
	}
}

func onWeekend(c domain.TaskCompletion) bool {
	d, ok := localWeekday(c.CompletedAt)
	return ok && (d == time.Saturday || d == time.Sunday)
}

// titleMatcher matches completions whose task title carries any keyword.
// ASCII keywords match whole words case-insensitively, so "read" does not
// match "bread". Other keywords match as substrings.
func titleMatcher(tasks []domain.Task, keywords ...string) func(domain.TaskCompletion) bool {
	matched := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		matched[t.ID] = TitleHasKeyword(t.Title, keywords...)
	}
	return func(c domain.TaskCompletion) bool {
		return matched[c.TaskID]
	}
}

// TitleHasKeyword reports whether title carries any of keywords.
func TitleHasKeyword(title string, keywords ...string) bool {
	title = strings.ToLower(title)
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, k := range keywords {
		k = strings.ToLower(k)
		if !isASCII(k) {
			if strings.Contains(title, k) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == k {
				return true
			}
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func activeDays(completions []domain.TaskCompletion) int {
	days := map[string]struct{}{}
	for _, c := range completions {
		days[domain.DateKey(c.CompletedAt)] = struct{}{}
	}
	return len(days)
}
