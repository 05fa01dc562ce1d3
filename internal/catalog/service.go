package catalog

import (
	"context"
	"fmt"

	"github.com/2beens/calispro/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=catalog_test

type catalogRepo interface {
	ListExercises(ctx context.Context) ([]Exercise, error)
	GetExercise(ctx context.Context, id string) (*Exercise, error)
	UpsertExercise(ctx context.Context, e Exercise) error
	ListSkills(ctx context.Context) ([]Skill, error)
	UpsertSkill(ctx context.Context, s Skill) error
	ListWorkouts(ctx context.Context, userID string) ([]Workout, error)
	GetWorkout(ctx context.Context, id string) (*Workout, error)
	AddWorkout(ctx context.Context, w Workout) (*Workout, error)
	CountCustomWorkouts(ctx context.Context, creatorID string) (int, error)
}

const PlanFree = "free"

// Seed is a bundle of reference data loaded at once.
type Seed struct {
	Exercises []Exercise `json:"exercises"`
	Skills    []Skill    `json:"skills"`
	Workouts  []Workout  `json:"workouts"`
}

type Service struct {
	repo                 catalogRepo
	cache                *ReferenceCache
	freePlanWorkoutLimit int
}

// NewService creates the catalog service. cache may be nil.
func NewService(repo catalogRepo, cache *ReferenceCache, freePlanWorkoutLimit int) *Service {
	return &Service{
		repo:                 repo,
		cache:                cache,
		freePlanWorkoutLimit: freePlanWorkoutLimit,
	}
}

func (s *Service) Exercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.exercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.cache != nil {
		if exercises, ok := s.cache.Exercises(); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return exercises, nil
		}
	}

	exercises, err := s.repo.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	if s.cache != nil {
		s.cache.SetExercises(exercises)
	}
	return exercises, nil
}

func (s *Service) Exercise(ctx context.Context, id string) (*Exercise, error) {
	return s.repo.GetExercise(ctx, id)
}

func (s *Service) Skills(ctx context.Context) (_ []Skill, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.skills")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.cache != nil {
		if skills, ok := s.cache.Skills(); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return skills, nil
		}
	}

	skills, err := s.repo.ListSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	if s.cache != nil {
		s.cache.SetSkills(skills)
	}
	return skills, nil
}

func (s *Service) Skill(ctx context.Context, id string) (*Skill, error) {
	skills, err := s.Skills(ctx)
	if err != nil {
		return nil, err
	}
	for i := range skills {
		if skills[i].ID == id {
			return &skills[i], nil
		}
	}
	return nil, ErrSkillNotFound
}

// SkillByName looks a skill up by its human readable name, which is how mastery records key skills.
func (s *Service) SkillByName(ctx context.Context, name string) (*Skill, error) {
	skills, err := s.Skills(ctx)
	if err != nil {
		return nil, err
	}
	for i := range skills {
		if skills[i].Name == name {
			return &skills[i], nil
		}
	}
	norm := NormalizeRef(name)
	for i := range skills {
		if NormalizeRef(skills[i].Name) == norm {
			return &skills[i], nil
		}
	}
	return nil, ErrSkillNotFound
}

// SkillsUnlocking returns every skill whose mastery levels list the referenced exercise.
func (s *Service) SkillsUnlocking(ctx context.Context, exerciseRef string) ([]Skill, error) {
	skills, err := s.Skills(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := s.Exercises(ctx)
	if err != nil {
		return nil, err
	}

	exercise, known := FindExercise(exercises, exerciseRef)

	var unlocking []Skill
	for _, skill := range skills {
		if known && skill.Unlocks(exercise) || !known && skill.UnlocksRef(exerciseRef) {
			unlocking = append(unlocking, skill)
		}
	}
	return unlocking, nil
}

func (s *Service) Workouts(ctx context.Context, userID string) ([]Workout, error) {
	return s.repo.ListWorkouts(ctx, userID)
}

func (s *Service) Workout(ctx context.Context, userID, id string) (*Workout, error) {
	w, err := s.repo.GetWorkout(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.AccessibleBy(userID) {
		return nil, ErrWorkoutForbidden
	}
	return w, nil
}

// CreateWorkout stores a custom workout owned by userID. Free plan users are capped.
func (s *Service) CreateWorkout(ctx context.Context, userID, plan string, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.plan", plan))

	if err := w.Validate(); err != nil {
		return nil, err
	}

	if plan == PlanFree {
		count, err := s.repo.CountCustomWorkouts(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count custom workouts: %w", err)
		}
		if count >= s.freePlanWorkoutLimit {
			return nil, ErrWorkoutLimitReached
		}
	}

	w.ID = ""
	w.IsGlobal = false
	w.CreatorID = userID
	if w.Level == "" {
		w.Level = LevelBeginner
	}
	return s.repo.AddWorkout(ctx, w)
}

// LoadSeed upserts reference data and drops the cached lists.
func (s *Service) LoadSeed(ctx context.Context, seed Seed) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.seed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for _, e := range seed.Exercises {
		if err := s.repo.UpsertExercise(ctx, e); err != nil {
			return fmt.Errorf("upsert exercise %s: %w", e.ID, err)
		}
	}
	for _, sk := range seed.Skills {
		if err := s.repo.UpsertSkill(ctx, sk); err != nil {
			return fmt.Errorf("upsert skill %s: %w", sk.ID, err)
		}
	}
	for _, w := range seed.Workouts {
		w.IsGlobal = true
		w.CreatorID = ""
		if _, err := s.repo.AddWorkout(ctx, w); err != nil {
			return fmt.Errorf("add workout %s: %w", w.ID, err)
		}
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}
	log.Infof("catalog seeded: %d exercises, %d skills, %d workouts",
		len(seed.Exercises), len(seed.Skills), len(seed.Workouts))
	return nil
}
