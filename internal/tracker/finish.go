package tracker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	workoutBaseXP     = 50
	minSkillPoints    = 10
	minExercisePoints = 8
	basePointsPerSet  = 8
	setValuePerPoint  = 5
	minPointsPerSkill = 1
)

// sessionResult is a snapshot of a finished session, detached from the tracker.
type sessionResult struct {
	entries  []PlannedEntry
	sets     [][]SetState
	duration int
	lib      Library
}

func completedTotal(sets []SetState) int {
	total := 0
	for _, s := range sets {
		if s.Completed {
			total += s.Value
		}
	}
	return total
}

func (r sessionResult) performances() []ledger.ExercisePerformance {
	perf := make([]ledger.ExercisePerformance, 0, len(r.entries))
	for i, entry := range r.entries {
		total := completedTotal(r.sets[i])
		p := ledger.ExercisePerformance{ExerciseID: entry.ExerciseID}
		if entry.DurationBased {
			p.DurationCompleted = &total
		} else {
			p.RepsCompleted = &total
		}
		perf = append(perf, p)
	}
	return perf
}

// masteryPoints is 8 per completed set plus one per 5 reps or seconds of that set.
func (r sessionResult) masteryPoints() int {
	points := 0
	for _, sets := range r.sets {
		for _, s := range sets {
			if s.Completed {
				points += basePointsPerSet + s.Value/setValuePerPoint
			}
		}
	}
	return points
}

func (t WorkoutTarget) finish(ctx context.Context, l Ledger, r sessionResult) (ledger.LogRequest, error) {
	perf := r.performances()
	xp := workoutBaseXP
	for _, p := range perf {
		xp += int(math.Round(float64(p.Reps()) / 2))
	}
	return ledger.LogRequest{
		SessionType:    ledger.SessionTypeWorkout,
		WorkoutID:      t.Workout.ID,
		SessionName:    t.SessionName(),
		DurationActual: r.duration,
		XPGained:       xp,
		Notes:          "Completed via tracker",
		Exercises:      perf,
	}, nil
}

// finish awards the skill before the log is written; a failed award fails the finish.
func (t SkillTarget) finish(ctx context.Context, l Ledger, r sessionResult) (ledger.LogRequest, error) {
	points := max(minSkillPoints, r.masteryPoints())
	if _, err := l.AwardMastery(ctx, ledger.AwardRequest{SkillID: t.Skill.Name, Points: points}); err != nil {
		return ledger.LogRequest{}, fmt.Errorf("award %s: %w", t.Skill.Name, err)
	}
	return ledger.LogRequest{
		SessionType:    ledger.SessionTypeSkill,
		SkillID:        t.Skill.Name,
		SessionName:    t.SessionName(),
		DurationActual: r.duration,
		XPGained:       points,
		Notes:          "Skill mastery session completed via tracker",
		Exercises:      r.performances(),
	}, nil
}

// finish splits the points over every linked skill. Awards run concurrently and
// independently; their failures are logged and never block the session log.
func (t ExerciseTarget) finish(ctx context.Context, l Ledger, r sessionResult) (ledger.LogRequest, error) {
	points := max(minExercisePoints, r.masteryPoints())

	linked := t.linkedSkills(r.lib)
	if len(linked) == 0 {
		log.Debugf("exercise %s has no linked skill, no mastery awarded", t.Exercise.ID)
	} else if err := awardAll(ctx, l, linked, splitPoints(points, len(linked))); err != nil {
		log.Errorf("exercise session %s, mastery awards: %s", t.Exercise.ID, err)
	}

	return ledger.LogRequest{
		SessionType:    ledger.SessionTypeExercise,
		ExerciseID:     t.Exercise.ID,
		SessionName:    t.SessionName(),
		DurationActual: r.duration,
		XPGained:       points,
		Notes:          "Exercise session completed via tracker",
		Exercises:      r.performances(),
	}, nil
}

// splitPoints rounds each share on its own, so shares need not add up to points.
func splitPoints(points, skills int) int {
	return max(minPointsPerSkill, int(math.Round(float64(points)/float64(skills))))
}

func awardAll(ctx context.Context, l Ledger, skills []catalog.Skill, points int) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, skill := range skills {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := l.AwardMastery(ctx, ledger.AwardRequest{SkillID: name, Points: points}); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("award %s: %w", name, err))
				mu.Unlock()
			}
		}(skill.Name)
	}
	wg.Wait()
	return errs
}

// Submission is a finished session waiting to be written. It holds no reference to the
// tracker, so Submit may run off the tracker's event loop.
type Submission struct {
	target Target
	ledger Ledger
	result sessionResult
	// Redirect is set when the session continues with a suggested exercise
	// instead of showing the completion screen.
	Redirect *catalog.Exercise
}

func (s *Submission) Submit(ctx context.Context) (*ledger.HistoryRecord, error) {
	req, err := s.target.finish(ctx, s.ledger, s.result)
	if err != nil {
		return nil, err
	}
	rec, err := s.ledger.RecordSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("log session: %w", err)
	}
	return rec, nil
}
