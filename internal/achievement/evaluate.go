package achievement

import "habitline/internal/domain"

// Evaluate returns the ids of every definition whose condition currently holds.
// Conditions are recomputed from the full history on each call.
func Evaluate(defs Catalog, tasks []domain.Task, completions []domain.TaskCompletion) map[int]bool {
	out := make(map[int]bool, len(defs))
	for _, d := range defs {
		if d.Condition != nil && d.Condition(tasks, completions) {
			out[d.ID] = true
		}
	}
	return out
}

// SelectUnlock picks the first definition in catalog order that is satisfied
// and not yet unlocked. At most one definition unlocks per completion event;
// others wait for a later event.
func SelectUnlock(defs Catalog, satisfied map[int]bool, unlocked []domain.AchievementRecord) *domain.AchievementDefinition {
	have := make(map[int]bool, len(unlocked))
	for _, r := range unlocked {
		have[r.AchievementID] = true
	}
	for i := range defs {
		if satisfied[defs[i].ID] && !have[defs[i].ID] {
			d := defs[i]
			return &d
		}
	}
	return nil
}

// Progress summarizes unlocked vs. total definitions.
type Progress struct {
	Unlocked int
	Total    int
}

// CountUnlocked counts records that reference a definition in the catalog.
func (c Catalog) CountUnlocked(unlocked []domain.AchievementRecord) Progress {
	seen := map[int]bool{}
	for _, r := range unlocked {
		if c.Lookup(r.AchievementID) != nil {
			seen[r.AchievementID] = true
		}
	}
	return Progress{Unlocked: len(seen), Total: len(c)}
}
