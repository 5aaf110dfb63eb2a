package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=stats_test

type statsService interface {
	Stats(ctx context.Context, userID int, now time.Time) (*Stats, error)
}

type Handler struct {
	service  statsService
	location *time.Location
	nowFunc  func() time.Time
}

func NewHandler(service statsService, location *time.Location) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		nowFunc:  time.Now,
	}
}

func (handler *Handler) SetNowFunc(nowFunc func() time.Time) {
	handler.nowFunc = nowFunc
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/history/stats", handler.HandleStats).Methods("GET", "OPTIONS").Name("history-stats")
}

// HandleStats serves the stats of the logged user. An optional "now" query
// param evaluates them at another point in time.
func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	now := handler.nowFunc()
	if nowParam := r.URL.Query().Get("now"); nowParam != "" {
		parsed, err := ParseTimestamp("now", nowParam, handler.location)
		if err != nil {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		now = parsed
	}

	stats, err := handler.service.Stats(ctx, userID, now)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			log.Warnf("stats for user %d, invalid data: %s", userID, err)
			pkg.WriteJSONError(w, validationErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		log.Errorf("failed to compute stats for user %d: %s", userID, err)
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("failed to marshal stats: %s", err)
		http.Error(w, "failed to marshal stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, statsJson)
}
