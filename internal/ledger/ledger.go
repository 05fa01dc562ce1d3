package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLog      = errors.New("invalid session log")
	ErrHistoryNotFound = errors.New("history entry not found")
	ErrInvalidAward    = errors.New("invalid mastery award")
)

const DefaultHistoryLimit = 10

// SessionType tags which kind of target a session trained.
type SessionType string

const (
	SessionTypeWorkout  SessionType = "workout"
	SessionTypeSkill    SessionType = "skill"
	SessionTypeExercise SessionType = "exercise"
)

func (st SessionType) IsValid() bool {
	switch st {
	case SessionTypeWorkout, SessionTypeSkill, SessionTypeExercise:
		return true
	default:
		return false
	}
}

func (st SessionType) String() string {
	return string(st)
}

// ExercisePerformance carries either completed reps or completed seconds, never both.
type ExercisePerformance struct {
	ExerciseID        string   `json:"exerciseId"`
	RepsCompleted     *int     `json:"repsCompleted,omitempty"`
	DurationCompleted *int     `json:"durationCompleted,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
}

func (p ExercisePerformance) Reps() int {
	if p.RepsCompleted == nil {
		return 0
	}
	return *p.RepsCompleted
}

func (p ExercisePerformance) Duration() int {
	if p.DurationCompleted == nil {
		return 0
	}
	return *p.DurationCompleted
}

func (p ExercisePerformance) validate() error {
	if p.ExerciseID == "" {
		return fmt.Errorf("%w: performance without exerciseId", ErrInvalidLog)
	}
	if p.RepsCompleted != nil && p.DurationCompleted != nil {
		return fmt.Errorf("%w: exercise %s has both reps and duration", ErrInvalidLog, p.ExerciseID)
	}
	if p.Reps() < 0 || p.Duration() < 0 {
		return fmt.Errorf("%w: exercise %s has negative result", ErrInvalidLog, p.ExerciseID)
	}
	return nil
}

// LogRequest is the body of a session log write.
type LogRequest struct {
	SessionType    SessionType           `json:"sessionType"`
	WorkoutID      string                `json:"workoutId,omitempty"`
	SkillID        string                `json:"skillId,omitempty"`
	ExerciseID     string                `json:"exerciseId,omitempty"`
	SessionName    string                `json:"sessionName"`
	DurationActual int                   `json:"durationActual"`
	XPGained       int                   `json:"xpGained"`
	Notes          string                `json:"notes,omitempty"`
	Exercises      []ExercisePerformance `json:"exercises"`
}

// Validate checks that exactly the id matching the session type is set.
func (r LogRequest) Validate() error {
	if !r.SessionType.IsValid() {
		return fmt.Errorf("%w: session type [%s]", ErrInvalidLog, r.SessionType)
	}

	ids := map[SessionType]string{
		SessionTypeWorkout:  r.WorkoutID,
		SessionTypeSkill:    r.SkillID,
		SessionTypeExercise: r.ExerciseID,
	}
	for st, id := range ids {
		if st == r.SessionType && id == "" {
			return fmt.Errorf("%w: %sId is required for %s sessions", ErrInvalidLog, st, st)
		}
		if st != r.SessionType && id != "" {
			return fmt.Errorf("%w: %sId not allowed for %s sessions", ErrInvalidLog, st, r.SessionType)
		}
	}

	if r.DurationActual < 1 {
		return fmt.Errorf("%w: durationActual must be at least 1", ErrInvalidLog)
	}
	if r.XPGained < 0 {
		return fmt.Errorf("%w: xpGained must not be negative", ErrInvalidLog)
	}
	for _, p := range r.Exercises {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// HistoryRecord is one finished session. It is never updated after creation.
type HistoryRecord struct {
	ID             string                `json:"id"`
	UserID         string                `json:"userId"`
	SessionType    SessionType           `json:"sessionType"`
	WorkoutID      string                `json:"workoutId,omitempty"`
	SkillID        string                `json:"skillId,omitempty"`
	ExerciseID     string                `json:"exerciseId,omitempty"`
	SessionName    string                `json:"sessionName"`
	Date           time.Time             `json:"date"`
	DurationActual int                   `json:"durationActual"`
	XPGained       int                   `json:"xpGained"`
	Notes          string                `json:"notes,omitempty"`
	Exercises      []ExercisePerformance `json:"exercises"`
}

// MasteryRecord is keyed by user and skill name.
type MasteryRecord struct {
	UserID        string    `json:"userId"`
	SkillID       string    `json:"skillId"`
	CurrentPoints int       `json:"currentPoints"`
	CurrentLevel  int       `json:"currentLevel"`
	LastTrained   time.Time `json:"lastTrained"`
}

type AwardRequest struct {
	SkillID string `json:"skillId"`
	Points  int    `json:"points"`
}

func (r AwardRequest) Validate() error {
	if r.SkillID == "" {
		return fmt.Errorf("%w: skillId is required", ErrInvalidAward)
	}
	if r.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrInvalidAward)
	}
	return nil
}

type StreakStats struct {
	CurrentStreak   int        `json:"currentStreak"`
	LongestStreak   int        `json:"longestStreak"`
	TotalActiveDays int        `json:"totalActiveDays"`
	HasTrainedToday bool       `json:"hasTrainedToday"`
	LastActiveDate  *time.Time `json:"lastActiveDate"`
}
