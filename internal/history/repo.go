package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrRecordNotFound = errors.New("workout record not found")

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
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

func (r *Repo) Add(ctx context.Context, record Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_record (user_id, template_id, executed_at, duration_seconds, total_volume, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;`,
		record.UserID, record.TemplateID, record.ExecutedAt, record.DurationSeconds, record.TotalVolume, record.Notes,
	).Scan(&record.ID)
	if err != nil {
		return nil, fmt.Errorf("insert workout record: %w", err)
	}

	span.SetAttributes(attribute.Int("record.id", record.ID))
	return &record, nil
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_record WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

const selectRecords = `
	SELECT
		wr.id, wr.user_id, wr.template_id, wr.executed_at, wr.duration_seconds, wr.total_volume, wr.notes,
		COALESCE(wt.title, ''), COALESCE(wt.split_label, '')
	FROM workout_record wr
	LEFT JOIN workout_template wt ON wt.id = wr.template_id AND wt.user_id = wr.user_id
`

// List returns a page of the user's records, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Record, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", params.UserID),
		attribute.Int("limit", params.Limit),
		attribute.Int("offset", params.Offset),
	)

	where := []string{"wr.user_id = $1"}
	args := []any{params.UserID}
	if params.TemplateID != nil {
		args = append(args, *params.TemplateID)
		where = append(where, fmt.Sprintf("wr.template_id = $%d", len(args)))
		span.SetAttributes(attribute.Int("template.id", *params.TemplateID))
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workout_record wr`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := selectRecords + whereClause +
		fmt.Sprintf(" ORDER BY wr.executed_at DESC, wr.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListAll returns every record of the user, oldest first.
func (r *Repo) ListAll(ctx context.Context, userID int) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	return r.query(ctx, selectRecords+` WHERE wr.user_id = $1 ORDER BY wr.executed_at, wr.id`, userID)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.TemplateID, &rec.ExecutedAt,
			&rec.DurationSeconds, &rec.TotalVolume, &rec.Notes,
			&rec.TemplateTitle, &rec.SplitLabel,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
