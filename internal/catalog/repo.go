package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

const exerciseColumns = `id, name, description, category, level, instructions, primary_muscles,
	secondary_muscles, form_tips, common_mistakes, video_url, image_url, progressions`

func (r *Repo) ListExercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	span.SetAttributes(attribute.Int("count", len(exercises)))
	return exercises, nil
}

func (r *Repo) GetExercise(ctx context.Context, id string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1;`, id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	exercises, err := rows2exercises(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2exercises: %w", err)
	}
	if len(exercises) != 1 {
		return nil, ErrExerciseNotFound
	}
	return &exercises[0], nil
}

// UpsertExercise inserts the exercise or replaces the stored one with the same id.
func (r *Repo) UpsertExercise(ctx context.Context, e Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.exercises.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", e.ID))

	instructions, err := json.Marshal(nonNil(e.Instructions))
	if err != nil {
		return fmt.Errorf("marshal instructions: %w", err)
	}
	primary, err := json.Marshal(nonNil(e.PrimaryMuscles))
	if err != nil {
		return fmt.Errorf("marshal primary muscles: %w", err)
	}
	secondary, err := json.Marshal(nonNil(e.SecondaryMuscles))
	if err != nil {
		return fmt.Errorf("marshal secondary muscles: %w", err)
	}
	formTips, err := json.Marshal(nonNil(e.FormTips))
	if err != nil {
		return fmt.Errorf("marshal form tips: %w", err)
	}
	mistakes, err := json.Marshal(nonNil(e.CommonMistakes))
	if err != nil {
		return fmt.Errorf("marshal common mistakes: %w", err)
	}
	progressions, err := json.Marshal(e.Progressions)
	if err != nil {
		return fmt.Errorf("marshal progressions: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
			level = EXCLUDED.level, instructions = EXCLUDED.instructions,
			primary_muscles = EXCLUDED.primary_muscles, secondary_muscles = EXCLUDED.secondary_muscles,
			form_tips = EXCLUDED.form_tips, common_mistakes = EXCLUDED.common_mistakes,
			video_url = EXCLUDED.video_url, image_url = EXCLUDED.image_url,
			progressions = EXCLUDED.progressions;`,
		e.ID, e.Name, e.Description, string(e.Category), string(e.Level), instructions, primary,
		secondary, formTips, mistakes, e.VideoURL, e.ImageURL, progressions,
	)
	return err
}

func rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		var category, level string
		var instructions, primary, secondary, formTips, mistakes, progressions []byte
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &category, &level, &instructions, &primary,
			&secondary, &formTips, &mistakes, &e.VideoURL, &e.ImageURL, &progressions,
		); err != nil {
			return nil, err
		}
		e.Category = Category(category)
		e.Level = Level(level)

		for _, f := range []struct {
			name string
			data []byte
			dst  any
		}{
			{"instructions", instructions, &e.Instructions},
			{"primary_muscles", primary, &e.PrimaryMuscles},
			{"secondary_muscles", secondary, &e.SecondaryMuscles},
			{"form_tips", formTips, &e.FormTips},
			{"common_mistakes", mistakes, &e.CommonMistakes},
			{"progressions", progressions, &e.Progressions},
		} {
			if len(f.data) == 0 {
				continue
			}
			if err := json.Unmarshal(f.data, f.dst); err != nil {
				return nil, fmt.Errorf("unmarshal %s for exercise %s: %w", f.name, e.ID, err)
			}
		}

		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

func (r *Repo) ListSkills(ctx context.Context) (_ []Skill, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.skills.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, category, icon, prerequisites, mastery_levels
			FROM skills ORDER BY name;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var skills []Skill
	for rows.Next() {
		var s Skill
		var category string
		var prerequisites, masteryLevels []byte
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &category, &s.Icon, &prerequisites, &masteryLevels); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		s.Category = Category(category)
		if len(prerequisites) > 0 {
			if err := json.Unmarshal(prerequisites, &s.Prerequisites); err != nil {
				return nil, fmt.Errorf("unmarshal prerequisites for skill %s: %w", s.ID, err)
			}
		}
		if len(masteryLevels) > 0 {
			if err := json.Unmarshal(masteryLevels, &s.MasteryLevels); err != nil {
				return nil, fmt.Errorf("unmarshal mastery levels for skill %s: %w", s.ID, err)
			}
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(skills)))
	return skills, nil
}

func (r *Repo) UpsertSkill(ctx context.Context, s Skill) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.skills.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", s.ID))

	prerequisites, err := json.Marshal(nonNil(s.Prerequisites))
	if err != nil {
		return fmt.Errorf("marshal prerequisites: %w", err)
	}
	levels := s.MasteryLevels
	if levels == nil {
		levels = []MasteryLevel{}
	}
	masteryLevels, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("marshal mastery levels: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO skills (id, name, description, category, icon, prerequisites, mastery_levels)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
			icon = EXCLUDED.icon, prerequisites = EXCLUDED.prerequisites,
			mastery_levels = EXCLUDED.mastery_levels;`,
		s.ID, s.Name, s.Description, string(s.Category), s.Icon, prerequisites, masteryLevels,
	)
	return err
}

const workoutColumns = `id, name, description, image_url, level, exercises, duration_estimate,
	is_global, COALESCE(creator_id::text, ''), created_at`

// ListWorkouts returns the global workouts plus the ones created by userID.
func (r *Repo) ListWorkouts(ctx context.Context, userID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workouts
			WHERE is_global OR creator_id = $1
			ORDER BY is_global DESC, created_at;`,
		creatorParam(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return rows2workouts(rows)
}

func (r *Repo) GetWorkout(ctx context.Context, id string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = $1;`, id)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}
	return &workouts[0], nil
}

// AddWorkout stores a new workout. An empty id gets a generated one.
func (r *Repo) AddWorkout(ctx context.Context, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	if w.Exercises == nil {
		w.Exercises = []WorkoutExercise{}
	}
	span.SetAttributes(attribute.String("id", w.ID))

	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workouts
			(id, name, description, image_url, level, exercises, duration_estimate, is_global, creator_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
			level = EXCLUDED.level, exercises = EXCLUDED.exercises,
			duration_estimate = EXCLUDED.duration_estimate;`,
		w.ID, w.Name, w.Description, w.ImageURL, string(w.Level), exercises, w.DurationEstimate,
		w.IsGlobal, w.CreatorID, w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repo) CountCustomWorkouts(ctx context.Context, creatorID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", creatorID))

	var count int
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workouts WHERE NOT is_global AND creator_id = $1;`,
		creatorParam(creatorID),
	).Scan(&count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return -1, err
	}
	return count, nil
}

// creatorParam turns an anonymous or malformed user id into NULL, which matches no creator.
func creatorParam(userID string) uuid.NullUUID {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

func rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var level string
		var exercises []byte
		if err := rows.Scan(
			&w.ID, &w.Name, &w.Description, &w.ImageURL, &level, &exercises, &w.DurationEstimate,
			&w.IsGlobal, &w.CreatorID, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		w.Level = Level(level)
		if len(exercises) > 0 {
			if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for workout %s: %w", w.ID, err)
			}
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
