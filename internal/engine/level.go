package engine

import "math"

// LevelCoef scales the level curve: reaching level L takes LevelCoef * L^1.5
// total reward.
const LevelCoef = 50.0

// RewardRequiredForLevel returns the total reward needed to be at level.
// Level 0 requires nothing.
func RewardRequiredForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return int(math.Ceil(LevelCoef * math.Pow(float64(level), 1.5)))
}

// LevelForReward returns the highest level L with total >= RewardRequiredForLevel(L).
func LevelForReward(total int) int {
	if total <= 0 {
		return 0
	}

	low, high := 0, 1
	for RewardRequiredForLevel(high) <= total {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}
	for low+1 < high {
		mid := low + (high-low)/2
		if RewardRequiredForLevel(mid) <= total {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// Level describes where a reward total sits on the level curve.
type Level struct {
	Level   int `json:"level"`
	Total   int `json:"total"`
	Current int `json:"current"` // reward required for Level
	Next    int `json:"next"`    // reward required for Level+1
}

func LevelFor(total int) Level {
	l := LevelForReward(total)
	return Level{
		Level:   l,
		Total:   total,
		Current: RewardRequiredForLevel(l),
		Next:    RewardRequiredForLevel(l + 1),
	}
}

// Fraction is the progress from Current towards Next, in [0,1].
func (l Level) Fraction() float64 {
	span := l.Next - l.Current
	if span <= 0 {
		return 0
	}
	return float64(l.Total-l.Current) / float64(span)
}
