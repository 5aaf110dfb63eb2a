package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/auth"
	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=backup_test

type exporter interface {
	Export(ctx context.Context, userID int, now time.Time) (*Export, error)
}

type Handler struct {
	exporter       exporter
	metricsManager *metrics.Manager
	nowFunc        func() time.Time
}

func NewHandler(exporter exporter, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		exporter:       exporter,
		metricsManager: metricsManager,
		nowFunc:        time.Now,
	}
}

func (handler *Handler) SetNowFunc(nowFunc func() time.Time) {
	handler.nowFunc = nowFunc
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/backup", handler.HandleExport).Methods("GET", "OPTIONS").Name("backup-export")
}

func (handler *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.backup.export")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	now := handler.nowFunc()
	export, err := handler.exporter.Export(ctx, userID, now)
	if err != nil {
		log.Errorf("export user %d: %s", userID, err)
		handler.metricsManager.CounterBackups.WithLabelValues("download_failed").Inc()
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	exportJson, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		log.Errorf("marshal export of user %d: %s", userID, err)
		handler.metricsManager.CounterBackups.WithLabelValues("download_failed").Inc()
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterBackups.WithLabelValues("download").Inc()
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, FileName(userID, now)))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exportJson, http.StatusOK)
}

// FileName names the backup file of a user for the day of now.
func FileName(userID int, now time.Time) string {
	return fmt.Sprintf("gymbuddy-backup-user-%d-%s.json", userID, now.Format(pkg.DateLayout))
}
