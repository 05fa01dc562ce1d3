package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type MasteryRepo struct {
	db *pgxpool.Pool
}

func NewMasteryRepo(db *pgxpool.Pool) *MasteryRepo {
	return &MasteryRepo{
		db: db,
	}
}

func (r *MasteryRepo) List(ctx context.Context, userID string) (_ []MasteryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.mastery.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records := []MasteryRecord{}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return records, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id::text, skill_id, current_points, current_level, last_trained
			FROM user_mastery
			WHERE user_id = $1
			ORDER BY skill_id;`,
		userUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec MasteryRecord
		if err := rows.Scan(&rec.UserID, &rec.SkillID, &rec.CurrentPoints, &rec.CurrentLevel, &rec.LastTrained); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Update runs mutate on the (user, skill) record while holding its row lock, creating
// the record at zero points and level 0 when it does not exist yet. Concurrent updates
// of the same pair are serialized; the mutated record is persisted only if mutate succeeds.
func (r *MasteryRepo) Update(
	ctx context.Context,
	userID, skillName string,
	mutate func(rec *MasteryRecord) error,
) (_ *MasteryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ledger.mastery.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("skill", skillName))

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO user_mastery (user_id, skill_id, current_points, current_level, last_trained)
			VALUES ($1, $2, 0, 0, $3)
			ON CONFLICT (user_id, skill_id) DO NOTHING;`,
		userID, skillName, time.Now(),
	); err != nil {
		return nil, fmt.Errorf("seed record: %w", err)
	}

	rec := MasteryRecord{}
	if err = tx.QueryRow(
		ctx,
		`SELECT user_id::text, skill_id, current_points, current_level, last_trained
			FROM user_mastery
			WHERE user_id = $1 AND skill_id = $2
			FOR UPDATE;`,
		userID, skillName,
	).Scan(&rec.UserID, &rec.SkillID, &rec.CurrentPoints, &rec.CurrentLevel, &rec.LastTrained); err != nil {
		return nil, fmt.Errorf("lock record: %w", err)
	}

	if err = mutate(&rec); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(
		ctx,
		`UPDATE user_mastery SET current_points = $3, current_level = $4, last_trained = $5
			WHERE user_id = $1 AND skill_id = $2;`,
		userID, skillName, rec.CurrentPoints, rec.CurrentLevel, rec.LastTrained,
	); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &rec, nil
}
