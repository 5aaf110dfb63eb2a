package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/stats"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/internal/users"
	"github.com/2beens/gymbuddy/internal/workouts"
)

// Export is the full JSON backup of one user.
type Export struct {
	ExportedAt time.Time           `json:"exportedAt"`
	User       *users.User         `json:"user"`
	Templates  []workouts.Template `json:"templates"`
	History    []history.Record    `json:"history"`
	BodyWeight []bodyweight.Sample `json:"bodyWeight"`
	Stats      *stats.Stats        `json:"stats,omitempty"`
}

type userGetter interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type Exporter struct {
	users  userGetter
	store  stats.Store
	engine *stats.Engine
}

func NewExporter(users userGetter, store stats.Store, engine *stats.Engine) *Exporter {
	return &Exporter{
		users:  users,
		store:  store,
		engine: engine,
	}
}

// Export collects everything stored for the user. Stats are left out when
// the stored data does not pass validation, the raw data is still exported.
func (e *Exporter) Export(ctx context.Context, userID int, now time.Time) (_ *Export, err error) {
	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "backup.export")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	snapshot, err := e.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot user %d: %w", userID, err)
	}

	export := &Export{
		ExportedAt: now,
		User:       user,
		Templates:  nonNil(snapshot.Templates),
		History:    nonNil(snapshot.Records),
		BodyWeight: nonNil(snapshot.WeightSamples),
	}

	computed, err := e.engine.Compute(snapshot.Records, snapshot.Templates, snapshot.WeightSamples, now)
	var validationErr *stats.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warnf("backup of user %d without stats: %s", userID, err)
	case err != nil:
		return nil, fmt.Errorf("compute stats of user %d: %w", userID, err)
	default:
		export.Stats = computed
	}

	span.SetAttributes(
		attribute.Int("templates", len(export.Templates)),
		attribute.Int("records", len(export.History)),
	)
	return export, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
