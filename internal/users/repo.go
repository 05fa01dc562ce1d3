package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

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

const userColumns = `id::text, name, email, password_hash, level, plan, goals, avatar_url, created_at, updated_at`

func (r *Repo) Add(ctx context.Context, u User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", u.ID))

	goals := u.Goals
	if goals == nil {
		goals = []string{}
	}
	goalsJson, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO users (id, name, email, password_hash, level, plan, goals, avatar_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Level, u.Plan, goalsJson, u.AvatarURL, u.CreatedAt, u.UpdatedAt,
	)
	if pkg.IsUniqueViolationError(err) {
		return ErrUserExists
	}
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	userUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, userUUID)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyemail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
}

func (r *Repo) Update(ctx context.Context, u User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", u.ID))

	goals := u.Goals
	if goals == nil {
		goals = []string{}
	}
	goalsJson, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}

	userUUID, err := uuid.Parse(u.ID)
	if err != nil {
		return ErrUserNotFound
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET name = $1, level = $2, goals = $3, avatar_url = $4, updated_at = $5
			WHERE id = $6;`,
		u.Name, u.Level, goalsJson, u.AvatarURL, u.UpdatedAt, userUUID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	var goals []byte
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Level, &u.Plan, &goals, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &u.Goals); err != nil {
			return nil, fmt.Errorf("unmarshal goals for user %s: %w", u.ID, err)
		}
	}
	return &u, nil
}
