package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

type usersService interface {
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (string, *User, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
}

type SignupResponse struct {
	Message string  `json:"message"`
	User    Summary `json:"user"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  Summary `json:"user"`
}

type Handler struct {
	service usersService
}

func NewHandler(service usersService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.signup")
	defer span.End()

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("signup, unmarshal json params: %s", err)
		http.Error(w, "signup failed", http.StatusBadRequest)
		return
	}

	user, err := handler.service.Signup(ctx, req)
	switch {
	case errors.Is(err, ErrInvalidSignup):
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	case errors.Is(err, ErrUserExists):
		http.Error(w, "user already exists", http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("signup: %s", err)
		http.Error(w, "error, signup failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, SignupResponse{
		Message: "Account created successfully. Please log in.",
		User:    user.Summary(),
	}, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	token, user, err := handler.service.Login(ctx, req)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("login: %s", err)
		http.Error(w, "error, login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, LoginResponse{Token: token, User: user.Summary()}, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	if err := handler.service.Logout(ctx, claims); err != nil {
		log.Errorf("logout [%s]: %s", claims.UserID, err)
		http.Error(w, "error, logout failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, pkg.MessageResponse{Message: "logged out"}, http.StatusOK)
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.me")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	user, err := handler.service.Me(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get me [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to get user", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, user, http.StatusOK)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.profile")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var update ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		http.Error(w, "update profile failed", http.StatusBadRequest)
		return
	}

	user, err := handler.service.UpdateProfile(ctx, claims.UserID, update)
	if errors.Is(err, ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("update profile [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to update profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, user, http.StatusOK)
}
