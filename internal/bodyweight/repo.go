package bodyweight

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Sample is a single body weight measurement, in kg.
type Sample struct {
	ID         int       `json:"id"`
	UserID     int       `json:"userId"`
	Weight     float64   `json:"weight"`
	MeasuredAt time.Time `json:"measuredAt"`
}

type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db dbtx
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) WithTx(tx pgx.Tx) *Repo {
	return &Repo{
		db: tx,
	}
}

func (r *Repo) Add(ctx context.Context, sample Sample) (_ *Sample, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodyweight.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO body_weight (user_id, weight, measured_at) VALUES ($1, $2, $3) RETURNING id;`,
		sample.UserID, sample.Weight, sample.MeasuredAt,
	).Scan(&sample.ID)
	if err != nil {
		return nil, fmt.Errorf("insert body weight: %w", err)
	}

	span.SetAttributes(attribute.Int("sample.id", sample.ID))
	return &sample, nil
}

// List returns all samples of the user, oldest first.
func (r *Repo) List(ctx context.Context, userID int) (_ []Sample, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.bodyweight.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, weight, measured_at FROM body_weight WHERE user_id = $1 ORDER BY measured_at, id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.ID, &s.UserID, &s.Weight, &s.MeasuredAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
