package stats

import (
	"context"
	"fmt"

	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/internal/workouts"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Snapshot is a consistent point-in-time view of one user's data.
type Snapshot struct {
	Records       []history.Record
	Templates     []workouts.Template
	WeightSamples []bodyweight.Sample
}

type Store interface {
	Snapshot(ctx context.Context, userID int) (*Snapshot, error)
}

var _ Store = (*PgStore)(nil)

type PgStore struct {
	db        *pgxpool.Pool
	records   *history.Repo
	templates *workouts.Repo
	weights   *bodyweight.Repo
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{
		db:        db,
		records:   history.NewRepo(db),
		templates: workouts.NewRepo(db),
		weights:   bodyweight.NewRepo(db),
	}
}

// Snapshot reads records, templates and body weight samples in a single
// read-only repeatable read transaction.
func (s *PgStore) Snapshot(ctx context.Context, userID int) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.stats.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	records, err := s.records.WithTx(tx).ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	templates, err := s.templates.WithTx(tx).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	samples, err := s.weights.WithTx(tx).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list body weight: %w", err)
	}

	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("templates", len(templates)),
		attribute.Int("weight_samples", len(samples)),
	)

	return &Snapshot{
		Records:       records,
		Templates:     templates,
		WeightSamples: samples,
	}, nil
}
