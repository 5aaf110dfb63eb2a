package misc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const (
	StatusOK          = "OK"
	StatusUnavailable = "UNAVAILABLE"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct {
	db          pinger
	versionInfo string
	nowFunc     func() time.Time
}

func NewHandler(db pinger, versionInfo string) *Handler {
	return &Handler{
		db:          db,
		versionInfo: versionInfo,
		nowFunc:     time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/health", handler.HandleHealth).Methods("GET", "OPTIONS").Name("health")
	mainRouter.HandleFunc("/version", handler.HandleVersion).Methods("GET").Name("version")
}

// HandleHealth reports OK unless the database cannot be reached.
func (handler *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.misc.health")
	defer span.End()

	resp := HealthResponse{
		Status:    StatusOK,
		Timestamp: handler.nowFunc().UTC(),
	}
	statusCode := http.StatusOK
	if handler.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := handler.db.Ping(pingCtx); err != nil {
			log.Errorf("health check, db ping: %s", err)
			span.SetStatus(codes.Error, err.Error())
			resp.Status = StatusUnavailable
			statusCode = http.StatusServiceUnavailable
		}
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal health response: %s", err)
		http.Error(w, "health check failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, statusCode)
}

func (handler *Handler) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
