// Package tracker drives one training session: it plans the exercises for a workout,
// a skill or a single exercise, runs the guided work/rest timer, and submits the
// results to the progress ledger when the session is finished.
//
// A Tracker is not safe for concurrent use. It is meant to be owned by a single
// event loop that feeds it one Tick per elapsed second plus the athlete's actions.
package tracker

import (
	"context"
	"errors"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
)

var (
	ErrEmptySession       = errors.New("no exercises available for this session")
	ErrGuidedFlowRunning  = errors.New("guided timer is running, wait for the current phase to finish")
	ErrExerciseIncomplete = errors.New("tick all sets for this exercise before continuing")
	ErrSessionIncomplete  = errors.New("complete all required sets before ending the session")
	ErrSetInProgress      = errors.New("set is being worked right now")
	ErrInvalidSet         = errors.New("no such set")
	ErrSessionFinished    = errors.New("session already finished")
	ErrFinishInProgress   = errors.New("session is being saved")
	ErrExerciseDone       = errors.New("all sets of this exercise are already complete")
)

const (
	// RestSeconds is the rest after every set, and the idle timer display.
	RestSeconds = 60

	minWorkSeconds = 20
	maxWorkSeconds = 180
	secondsPerRep  = 4
)

// PlannedEntry is one exercise of the session. It does not change once planned.
type PlannedEntry struct {
	ExerciseID    string
	Sets          int
	Target        int
	DurationBased bool
}

// SetState is the live state of one set; Value is reps or seconds.
type SetState struct {
	Value     int
	Completed bool
}

type Phase int

const (
	PhaseNone Phase = iota
	PhaseWork
	PhaseRest
)

func (p Phase) String() string {
	switch p {
	case PhaseWork:
		return "work"
	case PhaseRest:
		return "rest"
	default:
		return "none"
	}
}

// Library is the reference data a session is planned from.
type Library struct {
	Exercises []catalog.Exercise
	Skills    []catalog.Skill
	Mastery   []ledger.MasteryRecord
}

func (l Library) masteryLevel(skillName string) int {
	for _, m := range l.Mastery {
		if m.SkillID == skillName {
			return m.CurrentLevel
		}
	}
	return 0
}

//go:generate mockgen -source=$GOFILE -destination=tracker_mocks_test.go -package=tracker_test

// Ledger is where finished sessions are written.
type Ledger interface {
	RecordSession(ctx context.Context, req ledger.LogRequest) (*ledger.HistoryRecord, error)
	AwardMastery(ctx context.Context, req ledger.AwardRequest) (*ledger.MasteryRecord, error)
}

type Cue int

const (
	CueSetStarted Cue = iota
	CueSetComplete
	CueFlowComplete
	CueRestOver
	CueWarning
	CueInfo
)

// Notifier receives the audible/visual cues of a session.
type Notifier interface {
	Notify(cue Cue, message string)
}

type NotifierFunc func(cue Cue, message string)

func (f NotifierFunc) Notify(cue Cue, message string) {
	f(cue, message)
}

type silentNotifier struct{}

func (silentNotifier) Notify(Cue, string) {}
