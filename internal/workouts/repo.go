package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrTemplateNotFound = errors.New("template not found")

type dbtx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
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

// WithTx returns a repo bound to the given transaction.
func (r *Repo) WithTx(tx pgx.Tx) *Repo {
	return &Repo{
		db: tx,
	}
}

func (r *Repo) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
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

	now := time.Now()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = template.CreatedAt

	err = tx.QueryRow(
		ctx,
		`INSERT INTO workout_template (user_id, title, split_label, identifier, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;`,
		template.UserID, template.Title, template.SplitLabel, template.Identifier, template.CreatedAt, template.UpdatedAt,
	).Scan(&template.ID)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	if err := insertExercises(ctx, tx, template.ID, template.Exercises); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("template.id", template.ID))
	return &template, nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, templateID int, exercises []Exercise) error {
	for i := range exercises {
		e := &exercises[i]
		e.TemplateID = templateID
		if err := tx.QueryRow(
			ctx,
			`INSERT INTO template_exercise (template_id, name, set_count, rep_range, weight, rest_seconds, notes, ord)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id;`,
			templateID, e.Name, e.SetCount, e.RepRange, e.Weight, e.RestSeconds, e.Notes, e.Order,
		).Scan(&e.ID); err != nil {
			return fmt.Errorf("insert exercise %s: %w", e.Name, err)
		}
	}
	return nil
}

// Update replaces the template fields and all of its exercises.
func (r *Repo) Update(ctx context.Context, template *Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", template.ID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
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

	template.UpdatedAt = time.Now()
	err = tx.QueryRow(
		ctx,
		`UPDATE workout_template SET title = $1, split_label = $2, identifier = $3, updated_at = $4
			WHERE id = $5 AND user_id = $6
			RETURNING created_at;`,
		template.Title, template.SplitLabel, template.Identifier, template.UpdatedAt, template.ID, template.UserID,
	).Scan(&template.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTemplateNotFound
	}
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM template_exercise WHERE template_id = $1`, template.ID); err != nil {
		return fmt.Errorf("delete old exercises: %w", err)
	}

	return insertExercises(ctx, tx, template.ID, template.Exercises)
}

func (r *Repo) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_template WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, id int) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	templates, err := r.list(ctx,
		`SELECT id, user_id, title, split_label, identifier, created_at, updated_at
			FROM workout_template
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, ErrTemplateNotFound
	}
	return &templates[0], nil
}

// List returns all templates of the user, newest first.
func (r *Repo) List(ctx context.Context, userID int) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	return r.list(ctx,
		`SELECT id, user_id, title, split_label, identifier, created_at, updated_at
			FROM workout_template
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC;`,
		userID,
	)
}

func (r *Repo) Recent(ctx context.Context, userID, limit int) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID), attribute.Int("limit", limit))

	return r.list(ctx,
		`SELECT id, user_id, title, split_label, identifier, created_at, updated_at
			FROM workout_template
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2;`,
		userID, limit,
	)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.SplitLabel, &t.Identifier, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		t.Exercises = []Exercise{}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(templates) == 0 {
		return []Template{}, nil
	}

	if err := r.attachExercises(ctx, templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *Repo) attachExercises(ctx context.Context, templates []Template) error {
	ids := make([]int, 0, len(templates))
	byID := make(map[int]*Template, len(templates))
	for i := range templates {
		ids = append(ids, templates[i].ID)
		byID[templates[i].ID] = &templates[i]
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, template_id, name, set_count, rep_range, weight, rest_seconds, notes, ord
			FROM template_exercise
			WHERE template_id = ANY($1)
			ORDER BY template_id, ord;`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Exercise
		if err := rows.Scan(
			&e.ID, &e.TemplateID, &e.Name, &e.SetCount, &e.RepRange,
			&e.Weight, &e.RestSeconds, &e.Notes, &e.Order,
		); err != nil {
			return fmt.Errorf("exercise rows scan: %w", err)
		}
		if t, ok := byID[e.TemplateID]; ok {
			t.Exercises = append(t.Exercises, e)
		}
	}
	return rows.Err()
}
