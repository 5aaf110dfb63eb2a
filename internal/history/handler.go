package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/internal/workouts"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=history_test

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type recordsRepo interface {
	Add(ctx context.Context, record Record) (*Record, error)
	List(ctx context.Context, params ListParams) (_ []Record, total int, err error)
	Delete(ctx context.Context, userID, id int) error
}

type templateGetter interface {
	Get(ctx context.Context, userID, id int) (*workouts.Template, error)
}

type AddRecordRequest struct {
	TemplateID      int      `json:"templateId"`
	ExecutedAt      string   `json:"executedAt"`
	DurationSeconds *int     `json:"durationSeconds"`
	TotalVolume     *float64 `json:"totalVolume"`
	Notes           *string  `json:"notes"`
}

type ListResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

type Handler struct {
	repo           recordsRepo
	templates      templateGetter
	metricsManager *metrics.Manager
	location       *time.Location
	nowFunc        func() time.Time
}

func NewHandler(
	repo recordsRepo,
	templates templateGetter,
	metricsManager *metrics.Manager,
	location *time.Location,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		repo:           repo,
		templates:      templates,
		metricsManager: metricsManager,
		location:       location,
		nowFunc:        time.Now,
	}
}

// SetNowFunc overrides the clock used for records without executedAt.
func (handler *Handler) SetNowFunc(nowFunc func() time.Time) {
	handler.nowFunc = nowFunc
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/history", handler.HandleList).Methods("GET", "OPTIONS").Name("list-history")
	r.HandleFunc("/api/history", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-history-record")
	r.HandleFunc("/api/history/{id:[0-9]+}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-history-record")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	params := ListParams{
		UserID: userID,
		Limit:  DefaultListLimit,
	}
	query := r.URL.Query()
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			pkg.WriteJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		params.Limit = min(limit, MaxListLimit)
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			pkg.WriteJSONError(w, "invalid offset", http.StatusBadRequest)
			return
		}
		params.Offset = offset
	}
	if templateIDStr := query.Get("template_id"); templateIDStr != "" {
		templateID, err := strconv.Atoi(templateIDStr)
		if err != nil {
			pkg.WriteJSONError(w, "invalid template_id", http.StatusBadRequest)
			return
		}
		params.TemplateID = &templateID
	}

	records, total, err := handler.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list history for user %d: %s", userID, err)
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(ListResponse{
		Records: records,
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		log.Errorf("failed to marshal history: %s", err)
		http.Error(w, "failed to marshal history", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.new")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req AddRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new history record, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid record json", http.StatusBadRequest)
		return
	}

	record, err := handler.recordFromRequest(userID, req)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := handler.templates.Get(ctx, userID, record.TemplateID); err != nil {
		if errors.Is(err, workouts.ErrTemplateNotFound) {
			pkg.WriteJSONError(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("new history record, get template %d: %s", record.TemplateID, err)
		http.Error(w, "error, failed to add record", http.StatusInternalServerError)
		return
	}

	added, err := handler.repo.Add(ctx, record)
	if err != nil {
		log.Errorf("failed to add history record for user %d: %s", userID, err)
		http.Error(w, "error, failed to add record", http.StatusInternalServerError)
		return
	}
	handler.metricsManager.CounterWorkoutsLogged.Inc()

	resp, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal new history record: %s", err)
		http.Error(w, "error, failed to add record", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}

func (handler *Handler) recordFromRequest(userID int, req AddRecordRequest) (Record, error) {
	if req.TemplateID <= 0 {
		return Record{}, errors.New("templateId required")
	}
	if req.DurationSeconds != nil && *req.DurationSeconds < 0 {
		return Record{}, errors.New("durationSeconds must not be negative")
	}
	if req.TotalVolume != nil && *req.TotalVolume < 0 {
		return Record{}, errors.New("totalVolume must not be negative")
	}

	executedAt := handler.nowFunc()
	if req.ExecutedAt != "" {
		parsed, err := pkg.ParseTimestamp(req.ExecutedAt, handler.location)
		if err != nil {
			return Record{}, err
		}
		executedAt = parsed
	}

	return Record{
		UserID:          userID,
		TemplateID:      req.TemplateID,
		ExecutedAt:      executedAt,
		DurationSeconds: req.DurationSeconds,
		TotalVolume:     req.TotalVolume,
		Notes:           req.Notes,
	}, nil
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, userID, id)
	if errors.Is(err, ErrRecordNotFound) {
		pkg.WriteJSONError(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete history record %d: %s", id, err)
		http.Error(w, "error, failed to delete record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
