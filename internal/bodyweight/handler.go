package bodyweight

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=bodyweight_test

type samplesRepo interface {
	Add(ctx context.Context, sample Sample) (*Sample, error)
	List(ctx context.Context, userID int) ([]Sample, error)
}

type AddSampleRequest struct {
	Weight     float64 `json:"weight"`
	MeasuredAt string  `json:"measuredAt"`
}

type Handler struct {
	repo     samplesRepo
	location *time.Location
	nowFunc  func() time.Time
}

func NewHandler(repo samplesRepo, location *time.Location) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		repo:     repo,
		location: location,
		nowFunc:  time.Now,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/bodyweight", handler.HandleList).Methods("GET", "OPTIONS").Name("list-bodyweight")
	r.HandleFunc("/api/bodyweight", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-bodyweight")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodyweight.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	samples, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("list body weight for user %d: %s", userID, err)
		http.Error(w, "failed to list body weight", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(samples)
	if err != nil {
		log.Errorf("failed to marshal body weight samples: %s", err)
		http.Error(w, "failed to marshal body weight", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.bodyweight.new")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req AddSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "invalid body weight json", http.StatusBadRequest)
		return
	}
	if req.Weight <= 0 {
		pkg.WriteJSONError(w, "weight must be positive", http.StatusBadRequest)
		return
	}

	measuredAt := handler.nowFunc()
	if req.MeasuredAt != "" {
		parsed, err := pkg.ParseTimestamp(req.MeasuredAt, handler.location)
		if err != nil {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		measuredAt = parsed
	}

	added, err := handler.repo.Add(ctx, Sample{
		UserID:     userID,
		Weight:     req.Weight,
		MeasuredAt: measuredAt,
	})
	if err != nil {
		log.Errorf("failed to add body weight for user %d: %s", userID, err)
		http.Error(w, "error, failed to add body weight", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal body weight sample: %s", err)
		http.Error(w, "error, failed to add body weight", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}
