package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/events"
	"github.com/2beens/calispro/internal/telemetry/metrics"
	"github.com/2beens/calispro/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=ledger_test

type historyRepo interface {
	Add(ctx context.Context, rec HistoryRecord) error
	List(ctx context.Context, userID string, limit int) ([]HistoryRecord, error)
	Dates(ctx context.Context, userID string) ([]time.Time, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type masteryRepo interface {
	List(ctx context.Context, userID string) ([]MasteryRecord, error)
	Update(ctx context.Context, userID, skillName string, mutate func(rec *MasteryRecord) error) (*MasteryRecord, error)
}

type skillLookup interface {
	SkillByName(ctx context.Context, name string) (*catalog.Skill, error)
	SkillsUnlocking(ctx context.Context, exerciseRef string) ([]catalog.Skill, error)
}

type streakCache interface {
	Get(ctx context.Context, userID string) (*StreakStats, int64, error)
	Set(ctx context.Context, userID string, generation int64, stats StreakStats) error
	Invalidate(ctx context.Context, userID string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	history        historyRepo
	mastery        masteryRepo
	skills         skillLookup
	streaks        streakCache
	publisher      eventPublisher
	metricsManager *metrics.Manager
	// injectable for tests
	Now func() time.Time
}

// NewService wires the ledger. The streak cache and the publisher are optional.
func NewService(
	history historyRepo,
	mastery masteryRepo,
	skills skillLookup,
	streaks streakCache,
	publisher eventPublisher,
	metricsManager *metrics.Manager,
) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		history:        history,
		mastery:        mastery,
		skills:         skills,
		streaks:        streaks,
		publisher:      publisher,
		metricsManager: metricsManager,
		Now:            time.Now,
	}
}

// RecordSession stores one finished session. Workout sessions additionally accrue mastery
// points for every skill unlocking a performed exercise; accrual failures are logged and
// never fail the write.
func (s *Service) RecordSession(ctx context.Context, userID string, req LogRequest) (_ *HistoryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.ledger.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session_type", req.SessionType.String()))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := HistoryRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		SessionType:    req.SessionType,
		WorkoutID:      req.WorkoutID,
		SkillID:        req.SkillID,
		ExerciseID:     req.ExerciseID,
		SessionName:    req.SessionName,
		Date:           s.Now().UTC(),
		DurationActual: req.DurationActual,
		XPGained:       req.XPGained,
		Notes:          req.Notes,
		Exercises:      req.Exercises,
	}
	if rec.Exercises == nil {
		rec.Exercises = []ExercisePerformance{}
	}

	if err := s.history.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("add history record: %w", err)
	}
	s.metricsManager.CounterSessionsLogged.WithLabelValues(rec.SessionType.String()).Inc()

	if rec.SessionType == SessionTypeWorkout {
		if err := s.accrueWorkoutMastery(ctx, userID, rec.Exercises); err != nil {
			log.Errorf("session %s logged, mastery accrual incomplete: %s", rec.ID, err)
		}
	}

	s.invalidateStreak(ctx, userID)
	s.publish(ctx, events.Event{
		Type:       events.EventTypeSessionLogged,
		UserID:     userID,
		OccurredAt: rec.Date,
		Payload: events.SessionLogged{
			HistoryID:   rec.ID,
			SessionType: rec.SessionType.String(),
			XPGained:    rec.XPGained,
			Duration:    rec.DurationActual,
		},
	})

	return &rec, nil
}

// accrueWorkoutMastery runs one award per (performance, skill) match, serially.
func (s *Service) accrueWorkoutMastery(ctx context.Context, userID string, performances []ExercisePerformance) error {
	var errs error
	for _, p := range performances {
		skills, err := s.skills.SkillsUnlocking(ctx, p.ExerciseID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("skills unlocking %s: %w", p.ExerciseID, err))
			continue
		}

		points := WorkoutAccrualPoints(p)
		for i := range skills {
			if _, err := s.award(ctx, userID, skills[i].Name, &skills[i], points); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("award %s: %w", skills[i].Name, err))
			}
		}
	}
	return errs
}

// AwardMasteryPoints adds points to the user's record for the named skill. An unknown
// skill still accrues points, it just can never level up.
func (s *Service) AwardMasteryPoints(ctx context.Context, userID string, req AwardRequest) (_ *MasteryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.ledger.award")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("skill", req.SkillID))
	span.SetAttributes(attribute.Int("points", req.Points))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	skillName := req.SkillID
	skill, err := s.skills.SkillByName(ctx, req.SkillID)
	switch {
	case errors.Is(err, catalog.ErrSkillNotFound):
		log.Tracef("award mastery: skill [%s] not in catalog", req.SkillID)
		skill = nil
	case err != nil:
		return nil, fmt.Errorf("lookup skill: %w", err)
	default:
		skillName = skill.Name
	}

	return s.award(ctx, userID, skillName, skill, req.Points)
}

func (s *Service) award(ctx context.Context, userID, skillName string, skill *catalog.Skill, points int) (*MasteryRecord, error) {
	leveledUp := false
	rec, err := s.mastery.Update(ctx, userID, skillName, func(rec *MasteryRecord) error {
		leveledUp = applyAward(rec, skill, points, s.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if leveledUp {
		log.Debugf("user %s reached level %d in %s", userID, rec.CurrentLevel, skillName)
		s.metricsManager.CounterMasteryLevelUps.WithLabelValues(skillName).Inc()
		s.publish(ctx, events.Event{
			Type:       events.EventTypeMasteryLeveledUp,
			UserID:     userID,
			OccurredAt: rec.LastTrained,
			Payload: events.MasteryLeveledUp{
				Skill:    skillName,
				NewLevel: rec.CurrentLevel,
				Points:   rec.CurrentPoints,
			},
		})
	}
	return rec, nil
}

func (s *Service) ListMastery(ctx context.Context, userID string) ([]MasteryRecord, error) {
	return s.mastery.List(ctx, userID)
}

// StreakStats serves from the cache when possible. Cache failures only cost a recompute,
// and a result is only cached when the cache generation could be read first.
func (s *Service) StreakStats(ctx context.Context, userID string) (_ *StreakStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.ledger.streaks")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// the generation is read before the history, so a write landing in between
	// leaves our result under a stale generation
	cacheable := false
	var generation int64
	if s.streaks != nil {
		cached, gen, err := s.streaks.Get(ctx, userID)
		switch {
		case err != nil:
			log.Warnf("streak cache get [%s]: %s", userID, err)
		case cached != nil:
			span.SetAttributes(attribute.Bool("cached", true))
			return cached, nil
		default:
			cacheable = true
			generation = gen
		}
	}

	dates, err := s.history.Dates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history dates: %w", err)
	}
	stats := ComputeStreak(dates, s.Now())

	if cacheable {
		if err := s.streaks.Set(ctx, userID, generation, stats); err != nil {
			log.Warnf("streak cache set [%s]: %s", userID, err)
		}
	}
	return &stats, nil
}

func (s *Service) ListHistory(ctx context.Context, userID string, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.history.List(ctx, userID, limit)
}

// DeleteHistoryEntry removes one record. Mastery already awarded for it is kept.
func (s *Service) DeleteHistoryEntry(ctx context.Context, userID, id string) error {
	if err := s.history.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateStreak(ctx, userID)
	return nil
}

func (s *Service) DeleteAllHistory(ctx context.Context, userID string) (int64, error) {
	deleted, err := s.history.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.invalidateStreak(ctx, userID)
	}
	return deleted, nil
}

func (s *Service) invalidateStreak(ctx context.Context, userID string) {
	if s.streaks == nil {
		return
	}
	if err := s.streaks.Invalidate(ctx, userID); err != nil {
		log.Warnf("streak cache invalidate [%s]: %s", userID, err)
	}
}

// publish is best-effort. Broker delivery happens behind events.Dispatcher, off the request path.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Errorf("publish %s event: %s", event.Type, err)
	}
}
