package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=catalog_test

type catalogService interface {
	Exercises(ctx context.Context) ([]Exercise, error)
	Exercise(ctx context.Context, id string) (*Exercise, error)
	Skills(ctx context.Context) ([]Skill, error)
	Skill(ctx context.Context, id string) (*Skill, error)
	Workouts(ctx context.Context, userID string) ([]Workout, error)
	Workout(ctx context.Context, userID, id string) (*Workout, error)
	CreateWorkout(ctx context.Context, userID, plan string, w Workout) (*Workout, error)
}

type Handler struct {
	service catalogService
}

func NewHandler(service catalogService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises.list")
	defer span.End()

	exercises, err := handler.service.Exercises(ctx)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, "error, failed to get exercises", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}
	pkg.WriteJSON(w, exercises, http.StatusOK)
}

func (handler *Handler) HandleGetExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	exercise, err := handler.service.Exercise(ctx, id)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get exercise [%s]: %s", id, err)
		http.Error(w, "error, failed to get exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, exercise, http.StatusOK)
}

func (handler *Handler) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.skills.list")
	defer span.End()

	skills, err := handler.service.Skills(ctx)
	if err != nil {
		log.Errorf("list skills: %s", err)
		http.Error(w, "error, failed to get skills", http.StatusInternalServerError)
		return
	}
	if skills == nil {
		skills = []Skill{}
	}
	pkg.WriteJSON(w, skills, http.StatusOK)
}

func (handler *Handler) HandleGetSkill(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.skills.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	skill, err := handler.service.Skill(ctx, id)
	if errors.Is(err, ErrSkillNotFound) {
		http.Error(w, "skill not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get skill [%s]: %s", id, err)
		http.Error(w, "error, failed to get skill", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, skill, http.StatusOK)
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.workouts.list")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	workouts, err := handler.service.Workouts(ctx, claims.UserID)
	if err != nil {
		log.Errorf("list workouts for [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to get workouts", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []Workout{}
	}
	pkg.WriteJSON(w, workouts, http.StatusOK)
}

func (handler *Handler) HandleGetWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.workouts.get")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	workout, err := handler.service.Workout(ctx, claims.UserID, id)
	switch {
	case errors.Is(err, ErrWorkoutNotFound):
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrWorkoutForbidden):
		http.Error(w, "you do not have access to this workout", http.StatusForbidden)
		return
	case err != nil:
		log.Errorf("get workout [%s]: %s", id, err)
		http.Error(w, "error, failed to get workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.workouts.create")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Tracef("create workout, unmarshal json params: %s", err)
		http.Error(w, "create workout failed", http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreateWorkout(ctx, claims.UserID, claims.Plan, workout)
	switch {
	case errors.Is(err, ErrInvalidWorkout):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrWorkoutLimitReached):
		http.Error(w, "personal limit reached: upgrade to pro for unlimited custom workouts", http.StatusForbidden)
		return
	case err != nil:
		log.Errorf("create workout for [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to create workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout [%s] created by [%s]", created.ID, claims.UserID)
	pkg.WriteJSON(w, created, http.StatusCreated)
}
