package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
)

type Advance int

const (
	// AdvanceMoved means the tracker moved on to the next planned exercise.
	AdvanceMoved Advance = iota
	// AdvanceFinish means the last exercise is done and the session should be finished.
	AdvanceFinish
	// AdvanceRedirect means the session should be finished quietly and a new one
	// started for Suggestion().
	AdvanceRedirect
)

type NewTrackerParams struct {
	Target   Target
	Library  Library
	Ledger   Ledger
	Notifier Notifier
	// Now defaults to time.Now
	Now func() time.Time
}

type Tracker struct {
	target   Target
	lib      Library
	ledger   Ledger
	notifier Notifier
	now      func() time.Time

	entries    []PlannedEntry
	sets       [][]SetState
	suggestion *catalog.Exercise
	current    int
	startedAt  time.Time

	phase       Phase
	activeSet   int
	restSet     int
	timerActive bool
	timeLeft    int

	submitting bool
	finished   bool
}

// NewTracker plans the session and seeds every set with its entry's target.
// It returns ErrEmptySession when nothing could be planned.
func NewTracker(params NewTrackerParams) (*Tracker, error) {
	if params.Target == nil {
		return nil, ErrEmptySession
	}
	entries := params.Target.plan(params.Library)
	if len(entries) == 0 {
		return nil, ErrEmptySession
	}

	t := &Tracker{
		target:    params.Target,
		lib:       params.Library,
		ledger:    params.Ledger,
		notifier:  params.Notifier,
		now:       params.Now,
		entries:   entries,
		sets:      make([][]SetState, len(entries)),
		activeSet: -1,
		restSet:   -1,
		timeLeft:  RestSeconds,
	}
	if t.notifier == nil {
		t.notifier = silentNotifier{}
	}
	if t.now == nil {
		t.now = time.Now
	}

	for i, entry := range entries {
		sets := make([]SetState, entry.Sets)
		for j := range sets {
			sets[j] = SetState{Value: entry.Target}
		}
		t.sets[i] = sets
	}
	t.suggestion = params.Target.suggest(params.Library)
	t.startedAt = t.now()
	return t, nil
}

func (t *Tracker) Target() Target          { return t.target }
func (t *Tracker) Mode() ledger.SessionType { return t.target.Mode() }
func (t *Tracker) SessionName() string      { return t.target.SessionName() }
func (t *Tracker) Phase() Phase             { return t.phase }
func (t *Tracker) TimeLeft() int            { return t.timeLeft }
func (t *Tracker) TimerActive() bool        { return t.timerActive }
func (t *Tracker) Finished() bool           { return t.finished }
func (t *Tracker) Submitting() bool         { return t.submitting }
func (t *Tracker) StartedAt() time.Time     { return t.startedAt }

// Suggestion is the exercise an exercise-mode session continues with, if any.
func (t *Tracker) Suggestion() *catalog.Exercise {
	return t.suggestion
}

func (t *Tracker) Entries() []PlannedEntry {
	return append([]PlannedEntry(nil), t.entries...)
}

// Current returns the index and plan of the exercise being trained.
func (t *Tracker) Current() (int, PlannedEntry) {
	return t.current, t.entries[t.current]
}

// CurrentExercise resolves the current entry against the library.
func (t *Tracker) CurrentExercise() (catalog.Exercise, bool) {
	return catalog.FindExercise(t.lib.Exercises, t.entries[t.current].ExerciseID)
}

// Sets returns a copy of the set states of the entry at index.
func (t *Tracker) Sets(index int) []SetState {
	if index < 0 || index >= len(t.sets) {
		return nil
	}
	return append([]SetState(nil), t.sets[index]...)
}

// ActiveSet is the set the guided phase applies to.
func (t *Tracker) ActiveSet() (int, bool) {
	return t.activeSet, t.phase != PhaseNone
}

// RestingSet is the set a manual rest countdown was started for.
func (t *Tracker) RestingSet() (int, bool) {
	return t.restSet, t.restSet >= 0
}

func (t *Tracker) exerciseDone(index int) bool {
	sets := t.sets[index]
	if len(sets) == 0 {
		return false
	}
	for _, s := range sets {
		if !s.Completed {
			return false
		}
	}
	return true
}

func (t *Tracker) CurrentExerciseDone() bool {
	return t.exerciseDone(t.current)
}

func (t *Tracker) AllDone() bool {
	for i := range t.entries {
		if !t.exerciseDone(i) {
			return false
		}
	}
	return true
}

// NeedsExitConfirmation is true while leaving would discard an unfinished session.
func (t *Tracker) NeedsExitConfirmation() bool {
	return !t.finished
}

// Elapsed is the session duration in whole minutes, rounded up, at least one.
func (t *Tracker) Elapsed() int {
	minutes := int(math.Ceil(t.now().Sub(t.startedAt).Minutes()))
	return max(1, minutes)
}

func workSeconds(entry PlannedEntry, value int) int {
	if entry.DurationBased {
		return max(1, value)
	}
	return min(maxWorkSeconds, max(minWorkSeconds, value*secondsPerRep))
}

func (t *Tracker) resetTimer() {
	t.phase = PhaseNone
	t.activeSet = -1
	t.restSet = -1
	t.timerActive = false
	t.timeLeft = RestSeconds
}

func (t *Tracker) checkOpen() error {
	if t.finished {
		return ErrSessionFinished
	}
	if t.submitting {
		return ErrFinishInProgress
	}
	return nil
}

// StartFlow begins the guided work phase on the first set of the current exercise.
func (t *Tracker) StartFlow() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.phase != PhaseNone {
		return ErrGuidedFlowRunning
	}
	if t.CurrentExerciseDone() {
		return ErrExerciseDone
	}

	entry := t.entries[t.current]
	t.phase = PhaseWork
	t.activeSet = 0
	t.restSet = -1
	t.timeLeft = workSeconds(entry, t.sets[t.current][0].Value)
	t.timerActive = true
	t.notifier.Notify(CueSetStarted, "Set 1 started.")
	return nil
}

// StopFlow cancels the guided flow. The set being worked stays incomplete.
func (t *Tracker) StopFlow() {
	if t.phase == PhaseNone {
		return
	}
	t.resetTimer()
}

// Tick advances the timer by one second and runs any phase transition that falls due.
func (t *Tracker) Tick() {
	if !t.timerActive {
		return
	}
	if t.timeLeft > 0 {
		t.timeLeft--
	}
	if t.timeLeft > 0 {
		return
	}

	switch t.phase {
	case PhaseWork:
		t.sets[t.current][t.activeSet].Completed = true
		t.phase = PhaseRest
		t.timeLeft = RestSeconds
		t.notifier.Notify(CueSetComplete, fmt.Sprintf("Set %d complete. Rest now.", t.activeSet+1))
	case PhaseRest:
		next := t.activeSet + 1
		if next < len(t.sets[t.current]) {
			t.activeSet = next
			t.phase = PhaseWork
			t.timeLeft = workSeconds(t.entries[t.current], t.sets[t.current][next].Value)
			t.notifier.Notify(CueSetStarted, fmt.Sprintf("Set %d started.", next+1))
			return
		}
		t.resetTimer()
		t.notifier.Notify(CueFlowComplete, "Exercise flow complete.")
	default:
		t.resetTimer()
		t.notifier.Notify(CueRestOver, "Rest over.")
	}
}

// ToggleSet flips a set of the current exercise by hand. Completing a set starts a rest
// countdown; un-completing the resting set stops it.
func (t *Tracker) ToggleSet(index int) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.phase != PhaseNone {
		t.notifier.Notify(CueWarning, ErrGuidedFlowRunning.Error())
		return ErrGuidedFlowRunning
	}
	sets := t.sets[t.current]
	if index < 0 || index >= len(sets) {
		return ErrInvalidSet
	}

	sets[index].Completed = !sets[index].Completed
	if sets[index].Completed {
		t.timeLeft = RestSeconds
		t.timerActive = true
		t.restSet = index
		return nil
	}
	if t.restSet == index {
		t.resetTimer()
	}
	return nil
}

// AdjustSet changes a set's target by delta, never below 1. Only the set whose work
// phase is running is locked.
func (t *Tracker) AdjustSet(index, delta int) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	sets := t.sets[t.current]
	if index < 0 || index >= len(sets) {
		return ErrInvalidSet
	}
	if t.phase == PhaseWork && t.activeSet == index {
		return ErrSetInProgress
	}
	sets[index].Value = max(1, sets[index].Value+delta)
	return nil
}

// Next moves past a completed exercise. On the last one it tells the caller how the
// session ends instead of finishing it.
func (t *Tracker) Next() (Advance, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	if !t.CurrentExerciseDone() {
		t.notifier.Notify(CueWarning, ErrExerciseIncomplete.Error())
		return 0, ErrExerciseIncomplete
	}
	if t.current < len(t.entries)-1 {
		t.current++
		t.resetTimer()
		return AdvanceMoved, nil
	}
	if t.suggestion != nil {
		return AdvanceRedirect, nil
	}
	return AdvanceFinish, nil
}

func (t *Tracker) Prev() {
	if t.current == 0 || t.finished || t.submitting {
		return
	}
	t.current--
	t.resetTimer()
}

// BeginFinish snapshots a complete session for submission and locks the tracker until
// CompleteFinish is called. With redirect set, the submission carries the suggestion.
func (t *Tracker) BeginFinish(redirect bool) (*Submission, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if !t.AllDone() {
		t.notifier.Notify(CueWarning, ErrSessionIncomplete.Error())
		return nil, ErrSessionIncomplete
	}

	sets := make([][]SetState, len(t.sets))
	for i := range t.sets {
		sets[i] = append([]SetState(nil), t.sets[i]...)
	}
	sub := &Submission{
		target: t.target,
		ledger: t.ledger,
		result: sessionResult{
			entries:  t.Entries(),
			sets:     sets,
			duration: t.Elapsed(),
			lib:      t.lib,
		},
	}
	if redirect {
		sub.Redirect = t.suggestion
	}
	t.submitting = true
	return sub, nil
}

// CompleteFinish records the outcome of a submission. A failed submission leaves the
// session as it was so finishing can be retried.
func (t *Tracker) CompleteFinish(err error) {
	t.submitting = false
	if err != nil {
		t.notifier.Notify(CueWarning, "Failed to save this session. Please try again.")
		return
	}
	t.finished = true
	t.resetTimer()
	t.notifier.Notify(CueInfo, "Session saved successfully.")
}

// Finish submits the session synchronously.
func (t *Tracker) Finish(ctx context.Context) (*ledger.HistoryRecord, error) {
	return t.finish(ctx, false)
}

// FinishAndRedirect submits the session and returns the suggested exercise to continue with.
func (t *Tracker) FinishAndRedirect(ctx context.Context) (*ledger.HistoryRecord, *catalog.Exercise, error) {
	rec, err := t.finish(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	return rec, t.suggestion, nil
}

func (t *Tracker) finish(ctx context.Context, redirect bool) (*ledger.HistoryRecord, error) {
	sub, err := t.BeginFinish(redirect)
	if err != nil {
		return nil, err
	}
	rec, err := sub.Submit(ctx)
	t.CompleteFinish(err)
	return rec, err
}
