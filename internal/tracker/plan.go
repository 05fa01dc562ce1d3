package tracker

import (
	"context"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
)

// Target is what a session trains. Each variant plans and finishes on its own rules.
type Target interface {
	Mode() ledger.SessionType
	SessionName() string
	plan(lib Library) []PlannedEntry
	// suggest returns the exercise to continue with once this one is done, if any.
	suggest(lib Library) *catalog.Exercise
	finish(ctx context.Context, l Ledger, r sessionResult) (ledger.LogRequest, error)
}

func defaultSets(e *catalog.Exercise) int {
	if e == nil {
		return 3
	}
	switch e.Level {
	case catalog.LevelAdvanced:
		return 5
	case catalog.LevelIntermediate:
		return 4
	default:
		return 3
	}
}

// defaultTarget is reps, or seconds for holds.
func defaultTarget(e *catalog.Exercise) int {
	if e == nil {
		return 10
	}
	if e.Category.IsHold() {
		return 30
	}
	switch e.Level {
	case catalog.LevelAdvanced:
		return 6
	case catalog.LevelIntermediate:
		return 8
	default:
		return 10
	}
}

func defaultEntry(e catalog.Exercise) PlannedEntry {
	return PlannedEntry{
		ExerciseID:    e.ID,
		Sets:          defaultSets(&e),
		Target:        defaultTarget(&e),
		DurationBased: e.Category.IsHold(),
	}
}

func findExercise(lib Library, ref string) *catalog.Exercise {
	e, ok := catalog.FindExercise(lib.Exercises, ref)
	if !ok {
		return nil
	}
	return &e
}

type WorkoutTarget struct {
	Workout catalog.Workout
}

func (t WorkoutTarget) Mode() ledger.SessionType { return ledger.SessionTypeWorkout }
func (t WorkoutTarget) SessionName() string      { return t.Workout.Name }

// plan keeps one entry per workout line. A line's own sets, reps and duration win over
// the level defaults; a duration makes the line timed and "max" reps use the default.
func (t WorkoutTarget) plan(lib Library) []PlannedEntry {
	if len(lib.Exercises) == 0 {
		return nil
	}

	entries := make([]PlannedEntry, 0, len(t.Workout.Exercises))
	for _, line := range t.Workout.Exercises {
		exercise := findExercise(lib, line.ExerciseID)

		entry := PlannedEntry{
			ExerciseID: line.ExerciseID,
			Sets:       defaultSets(exercise),
			Target:     defaultTarget(exercise),
		}
		if exercise != nil {
			entry.ExerciseID = exercise.ID
		}
		if line.Sets > 0 {
			entry.Sets = line.Sets
		}
		if line.Reps != nil && !line.Reps.Max {
			entry.Target = line.Reps.Count
		}
		if line.Duration > 0 {
			entry.Target = line.Duration
			entry.DurationBased = true
		}
		entries = append(entries, entry)
	}
	return entries
}

func (t WorkoutTarget) suggest(Library) *catalog.Exercise { return nil }

type SkillTarget struct {
	Skill catalog.Skill
}

func (t SkillTarget) Mode() ledger.SessionType { return ledger.SessionTypeSkill }
func (t SkillTarget) SessionName() string      { return t.Skill.Name + " Mastery Session" }

// plan trains everything unlocked up to the athlete's current level of the skill,
// or the level 0 exercises when nothing is unlocked yet.
func (t SkillTarget) plan(lib Library) []PlannedEntry {
	level := lib.masteryLevel(t.Skill.Name)

	var refs []string
	for _, l := range t.Skill.MasteryLevels {
		if l.Level <= level {
			refs = append(refs, l.UnlockedExercises...)
		}
	}
	if len(refs) == 0 {
		if base, ok := t.Skill.LevelDef(0); ok {
			refs = base.UnlockedExercises
		}
	}

	seen := make(map[string]struct{}, len(refs))
	var entries []PlannedEntry
	for _, ref := range refs {
		exercise := findExercise(lib, ref)
		if exercise == nil {
			continue
		}
		if _, dup := seen[exercise.ID]; dup {
			continue
		}
		seen[exercise.ID] = struct{}{}
		entries = append(entries, defaultEntry(*exercise))
	}
	return entries
}

func (t SkillTarget) suggest(Library) *catalog.Exercise { return nil }

type ExerciseTarget struct {
	Exercise catalog.Exercise
}

func (t ExerciseTarget) Mode() ledger.SessionType { return ledger.SessionTypeExercise }
func (t ExerciseTarget) SessionName() string      { return t.Exercise.Name + " Session" }

func (t ExerciseTarget) plan(Library) []PlannedEntry {
	return []PlannedEntry{defaultEntry(t.Exercise)}
}

// suggest prefers a harder, then an easier progression. Without one it picks the first
// other exercise of the same category that is at least as hard.
func (t ExerciseTarget) suggest(lib Library) *catalog.Exercise {
	refs := append(append([]string{}, t.Exercise.Progressions.Harder...), t.Exercise.Progressions.Easier...)
	for _, ref := range refs {
		if found := findExercise(lib, ref); found != nil && found.ID != t.Exercise.ID {
			return found
		}
	}

	rank := t.Exercise.Level.Rank()
	for i := range lib.Exercises {
		e := lib.Exercises[i]
		if e.ID != t.Exercise.ID && e.Category == t.Exercise.Category && e.Level.Rank() >= rank {
			return &e
		}
	}
	return nil
}

// linkedSkills are the skills whose mastery levels list the exercise.
func (t ExerciseTarget) linkedSkills(lib Library) []catalog.Skill {
	var linked []catalog.Skill
	for _, s := range lib.Skills {
		if s.Unlocks(t.Exercise) {
			linked = append(linked, s)
		}
	}
	return linked
}
