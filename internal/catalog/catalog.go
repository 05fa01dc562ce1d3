package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrSkillNotFound       = errors.New("skill not found")
	ErrWorkoutNotFound     = errors.New("workout not found")
	ErrWorkoutForbidden    = errors.New("workout not accessible")
	ErrWorkoutLimitReached = errors.New("custom workout limit reached")
	ErrInvalidWorkout      = errors.New("invalid workout")
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Rank orders levels from easiest. Unknown levels rank as beginner.
func (l Level) Rank() int {
	switch l {
	case LevelIntermediate:
		return 1
	case LevelAdvanced:
		return 2
	default:
		return 0
	}
}

func (l Level) IsValid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

type Category string

const (
	CategoryPush     Category = "Push"
	CategoryPull     Category = "Pull"
	CategoryCore     Category = "Core"
	CategoryLegs     Category = "Legs"
	CategoryFullBody Category = "Full Body"
	CategoryBalance  Category = "Balance"
	CategoryStatic   Category = "Static"
)

// IsHold reports whether exercises of the category are trained for time rather than reps.
func (c Category) IsHold() bool {
	return c == CategoryStatic || c == CategoryBalance
}

type Progressions struct {
	Easier []string `json:"easier"`
	Harder []string `json:"harder"`
}

type Exercise struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Category         Category     `json:"category"`
	Level            Level        `json:"level"`
	Instructions     []string     `json:"instructions"`
	PrimaryMuscles   []string     `json:"primaryMuscles"`
	SecondaryMuscles []string     `json:"secondaryMuscles"`
	FormTips         []string     `json:"formTips"`
	CommonMistakes   []string     `json:"commonMistakes"`
	VideoURL         string       `json:"videoUrl,omitempty"`
	ImageURL         string       `json:"imageUrl,omitempty"`
	Progressions     Progressions `json:"progressions"`
}

// Matches reports whether ref names this exercise, by id or by normalized name.
func (e Exercise) Matches(ref string) bool {
	if ref == "" {
		return false
	}
	return ref == e.ID || NormalizeRef(ref) == NormalizeRef(e.Name)
}

type MasteryLevel struct {
	Level             int      `json:"level"`
	Label             string   `json:"label"`
	PointsRequired    int      `json:"pointsRequired"`
	UnlockedExercises []string `json:"unlockedExercises"`
}

type Skill struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      Category       `json:"category"`
	Icon          string         `json:"icon"`
	Prerequisites []string       `json:"prerequisites"`
	MasteryLevels []MasteryLevel `json:"masteryLevels"`
}

// LevelDef returns the definition of the given mastery level.
func (s Skill) LevelDef(level int) (MasteryLevel, bool) {
	for _, l := range s.MasteryLevels {
		if l.Level == level {
			return l, true
		}
	}
	return MasteryLevel{}, false
}

// Unlocks reports whether any mastery level of the skill lists the exercise.
func (s Skill) Unlocks(exercise Exercise) bool {
	for _, l := range s.MasteryLevels {
		for _, ref := range l.UnlockedExercises {
			if exercise.Matches(ref) {
				return true
			}
		}
	}
	return false
}

// UnlocksRef is Unlocks for a bare reference that did not resolve to a known exercise.
func (s Skill) UnlocksRef(ref string) bool {
	norm := NormalizeRef(ref)
	for _, l := range s.MasteryLevels {
		for _, unlocked := range l.UnlockedExercises {
			if unlocked == ref || NormalizeRef(unlocked) == norm {
				return true
			}
		}
	}
	return false
}

// RepsTarget is a workout line rep target: a count or "max".
type RepsTarget struct {
	Count int
	Max   bool
}

func (r RepsTarget) MarshalJSON() ([]byte, error) {
	if r.Max {
		return []byte(`"max"`), nil
	}
	return []byte(strconv.Itoa(r.Count)), nil
}

func (r *RepsTarget) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = RepsTarget{Count: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reps must be a number or a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "max") {
		*r = RepsTarget{Max: true}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid reps value %q", s)
	}
	*r = RepsTarget{Count: n}
	return nil
}

type WorkoutExercise struct {
	ExerciseID string      `json:"exerciseId"`
	Sets       int         `json:"sets"`
	Reps       *RepsTarget `json:"reps,omitempty"`
	Duration   int         `json:"duration,omitempty"`
}

type Workout struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	ImageURL         string            `json:"imageUrl,omitempty"`
	Level            Level             `json:"level"`
	Exercises        []WorkoutExercise `json:"exercises"`
	DurationEstimate int               `json:"durationEstimate"`
	IsGlobal         bool              `json:"isGlobal"`
	CreatorID        string            `json:"creatorId,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AccessibleBy reports whether the user may read the workout.
func (w Workout) AccessibleBy(userID string) bool {
	return w.IsGlobal || (w.CreatorID != "" && w.CreatorID == userID)
}

func (w Workout) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: name empty", ErrInvalidWorkout)
	}
	if w.Level != "" && !w.Level.IsValid() {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidWorkout, w.Level)
	}
	if len(w.Exercises) == 0 {
		return fmt.Errorf("%w: no exercises", ErrInvalidWorkout)
	}
	for i, line := range w.Exercises {
		if strings.TrimSpace(line.ExerciseID) == "" {
			return fmt.Errorf("%w: exercise %d has no id", ErrInvalidWorkout, i)
		}
		if line.Sets < 0 || line.Duration < 0 {
			return fmt.Errorf("%w: exercise %d has negative sets or duration", ErrInvalidWorkout, i)
		}
	}
	return nil
}

// NormalizeRef lowercases, trims and collapses inner whitespace.
func NormalizeRef(ref string) string {
	return strings.Join(strings.Fields(strings.ToLower(ref)), " ")
}

// FindExercise resolves a reference against a list of exercises, id matches first.
func FindExercise(exercises []Exercise, ref string) (Exercise, bool) {
	for _, e := range exercises {
		if e.ID == ref {
			return e, true
		}
	}
	norm := NormalizeRef(ref)
	if norm == "" {
		return Exercise{}, false
	}
	for _, e := range exercises {
		if NormalizeRef(e.Name) == norm {
			return e, true
		}
	}
	return Exercise{}, false
}
