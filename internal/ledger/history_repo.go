package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type HistoryRepo struct {
	db *pgxpool.Pool
}

func NewHistoryRepo(db *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{
		db: db,
	}
}

func (r *HistoryRepo) Add(ctx context.Context, rec HistoryRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.history.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", rec.ID))
	span.SetAttributes(attribute.String("session_type", rec.SessionType.String()))

	if rec.Exercises == nil {
		rec.Exercises = []ExercisePerformance{}
	}
	exercisesJson, err := json.Marshal(rec.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_logs
				(id, user_id, session_type, workout_id, skill_id, exercise_id, session_name,
				 date, duration_actual, xp_gained, notes, exercises)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12);`,
		rec.ID, rec.UserID, rec.SessionType, rec.WorkoutID, rec.SkillID, rec.ExerciseID, rec.SessionName,
		rec.Date, rec.DurationActual, rec.XPGained, rec.Notes, exercisesJson,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// List returns the newest records first.
func (r *HistoryRepo) List(ctx context.Context, userID string, limit int) (_ []HistoryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	// a malformed id owns nothing
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return []HistoryRecord{}, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id::text, user_id::text, session_type, COALESCE(workout_id, ''), COALESCE(skill_id, ''),
				COALESCE(exercise_id, ''), session_name, date, duration_actual, xp_gained, notes, exercises
			FROM workout_logs
			WHERE user_id = $1
			ORDER BY date DESC
			LIMIT $2;`,
		userUUID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records, err := rows2history(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2history: %w", err)
	}
	span.SetAttributes(attribute.Int("count", len(records)))
	return records, nil
}

func rows2history(rows pgx.Rows) ([]HistoryRecord, error) {
	var records []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var exercisesJson []byte
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.SessionType, &rec.WorkoutID, &rec.SkillID, &rec.ExerciseID,
			&rec.SessionName, &rec.Date, &rec.DurationActual, &rec.XPGained, &rec.Notes, &exercisesJson,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(exercisesJson, &rec.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal exercises of %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	return records, nil
}

// Dates returns the timestamps of all user sessions, oldest first.
func (r *HistoryRepo) Dates(ctx context.Context, userID string) (_ []time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.history.dates")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT date FROM workout_logs WHERE user_id = $1 ORDER BY date ASC;`,
		userUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

// Delete removes one record owned by the user.
func (r *HistoryRepo) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.history.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	recordUUID, err := uuid.Parse(id)
	if err != nil {
		return ErrHistoryNotFound
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return ErrHistoryNotFound
	}

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_logs WHERE id = $1 AND user_id = $2;`,
		recordUUID, userUUID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHistoryNotFound
	}
	return nil
}

func (r *HistoryRepo) DeleteAll(ctx context.Context, userID string) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.history.deleteall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM workout_logs WHERE user_id = $1;`, userUUID)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
