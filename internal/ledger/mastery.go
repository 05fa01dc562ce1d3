package ledger

import (
	"math"
	"time"

	"github.com/2beens/calispro/internal/catalog"
)

// WorkoutAccrualPoints is what one workout performance earns each skill it unlocks:
// 5 base, 2 per rep, 0.1 per second held.
func WorkoutAccrualPoints(p ExercisePerformance) int {
	return int(math.Round(5 + float64(p.Reps())*2 + float64(p.Duration())*0.1))
}

// applyAward adds points and advances the level by at most one step.
// A skill without a definition for the next level caps the record where it is.
func applyAward(rec *MasteryRecord, skill *catalog.Skill, points int, now time.Time) (leveledUp bool) {
	rec.CurrentPoints += points
	rec.LastTrained = now

	if skill == nil {
		return false
	}
	next, ok := skill.LevelDef(rec.CurrentLevel + 1)
	if !ok || rec.CurrentPoints < next.PointsRequired {
		return false
	}
	rec.CurrentLevel++
	return true
}
