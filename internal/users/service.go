package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=users_test

type usersRepo interface {
	Add(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u User) error
}

type tokenIssuer interface {
	Issue(userID, plan string) (string, error)
}

type tokenRevoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type Service struct {
	repo    usersRepo
	tokens  tokenIssuer
	revoker tokenRevoker
	// injectable for tests
	Now          func() time.Time
	HashPassword func(password string) (string, error)
}

func NewService(repo usersRepo, tokens tokenIssuer, revoker tokenRevoker) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		revoker:      revoker,
		Now:          time.Now,
		HashPassword: pkg.HashPassword,
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.Now()
	user := User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Plan:         PlanFree,
		Goals:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Add(ctx, user); err != nil {
		return nil, err
	}

	log.Infof("new user signed up: %s", user.ID)
	return &user, nil
}

// Login verifies the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (_ string, _ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Plan)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims)
}

func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.profile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	update.apply(user)
	user.UpdatedAt = s.Now()
	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}
