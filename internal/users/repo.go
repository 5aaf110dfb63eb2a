package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, weight, height, goal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`,
		user.Name, user.Email, user.PasswordHash, user.Weight, user.Height, user.Goal,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get_by_email")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getBy(ctx, `WHERE email = $1`, email)
}

func (r *Repo) getBy(ctx context.Context, where string, arg any) (*User, error) {
	user := &User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, weight, height, goal, created_at
		FROM users `+where, arg).
		Scan(
			&user.ID, &user.Name, &user.Email, &user.PasswordHash,
			&user.Weight, &user.Height, &user.Goal, &user.CreatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, userID int, profile Profile) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_profile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET name = $1, weight = $2, height = $3, goal = $4
		WHERE id = $5;
	`,
		profile.Name, profile.Weight, profile.Height, profile.Goal, userID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	return r.getBy(ctx, `WHERE id = $1`, userID)
}

// ListIDs returns the ids of all users, used by the backup job.
func (r *Repo) ListIDs(ctx context.Context) (_ []int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.list_ids")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT id FROM users ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}
	return ids, nil
}
