package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/telemetry/tracing"
	"github.com/2beens/calispro/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=ledger_test

type ledgerService interface {
	RecordSession(ctx context.Context, userID string, req LogRequest) (*HistoryRecord, error)
	AwardMasteryPoints(ctx context.Context, userID string, req AwardRequest) (*MasteryRecord, error)
	ListMastery(ctx context.Context, userID string) ([]MasteryRecord, error)
	StreakStats(ctx context.Context, userID string) (*StreakStats, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]HistoryRecord, error)
	DeleteHistoryEntry(ctx context.Context, userID, id string) error
	DeleteAllHistory(ctx context.Context, userID string) (int64, error)
}

type DeleteAllResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

type Handler struct {
	service ledgerService
}

func NewHandler(service ledgerService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleRecordSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.record")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("record session, unmarshal json params: %s", err)
		http.Error(w, "log session failed", http.StatusBadRequest)
		return
	}
	if req.SessionType == "" {
		req.SessionType = SessionTypeWorkout
	}

	rec, err := handler.service.RecordSession(ctx, claims.UserID, req)
	if errors.Is(err, ErrInvalidLog) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("record session [%s]: %s", claims.UserID, err)
		http.Error(w, "error, log session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, rec, http.StatusCreated)
}

func (handler *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.history")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	limit := DefaultHistoryLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := handler.service.ListHistory(ctx, claims.UserID, limit)
	if err != nil {
		log.Errorf("list history [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to get history", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, history, http.StatusOK)
}

func (handler *Handler) HandleDeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.history.delete")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "history entry id missing", http.StatusBadRequest)
		return
	}

	err := handler.service.DeleteHistoryEntry(ctx, claims.UserID, id)
	if errors.Is(err, ErrHistoryNotFound) {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("delete history entry %s [%s]: %s", id, claims.UserID, err)
		http.Error(w, "error, failed to delete history entry", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, pkg.MessageResponse{Message: "History entry deleted"}, http.StatusOK)
}

func (handler *Handler) HandleDeleteAllHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.history.deleteall")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	deleted, err := handler.service.DeleteAllHistory(ctx, claims.UserID)
	if err != nil {
		log.Errorf("delete all history [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to clear history", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, DeleteAllResponse{Message: "History cleared", DeletedCount: deleted}, http.StatusOK)
}

func (handler *Handler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.streaks")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	stats, err := handler.service.StreakStats(ctx, claims.UserID)
	if err != nil {
		log.Errorf("streak stats [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to get streaks", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, stats, http.StatusOK)
}

func (handler *Handler) HandleListMastery(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.mastery.list")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	records, err := handler.service.ListMastery(ctx, claims.UserID)
	if err != nil {
		log.Errorf("list mastery [%s]: %s", claims.UserID, err)
		http.Error(w, "error, failed to get mastery", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, records, http.StatusOK)
}

func (handler *Handler) HandleAwardMastery(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ledger.mastery.award")
	defer span.End()

	claims, ok := auth.RequireClaims(w, r)
	if !ok {
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("award mastery, unmarshal json params: %s", err)
		http.Error(w, "update mastery failed", http.StatusBadRequest)
		return
	}

	rec, err := handler.service.AwardMasteryPoints(ctx, claims.UserID, req)
	if errors.Is(err, ErrInvalidAward) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("award mastery %s [%s]: %s", req.SkillID, claims.UserID, err)
		http.Error(w, "error, update mastery failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, rec, http.StatusOK)
}
