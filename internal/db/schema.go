package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates all gymbuddy tables. Safe to run more than once.
// workout_record.template_id is deliberately not a foreign key: deleting a
// template keeps the history, and stats treat such records as dangling.
const Schema = `
CREATE TABLE IF NOT EXISTS public.users
(
    id            SERIAL PRIMARY KEY,
    name          VARCHAR     NOT NULL,
    email         VARCHAR     NOT NULL UNIQUE,
    password_hash VARCHAR     NOT NULL,
    weight        NUMERIC(6, 2),
    height        NUMERIC(6, 2),
    goal          TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS public.workout_template
(
    id          SERIAL PRIMARY KEY,
    user_id     INTEGER     NOT NULL REFERENCES public.users (id) ON DELETE CASCADE,
    title       VARCHAR     NOT NULL,
    split_label VARCHAR     NOT NULL DEFAULT '',
    identifier  VARCHAR     NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_workout_template_user_id ON public.workout_template (user_id, created_at);

CREATE TABLE IF NOT EXISTS public.template_exercise
(
    id           SERIAL PRIMARY KEY,
    template_id  INTEGER NOT NULL REFERENCES public.workout_template (id) ON DELETE CASCADE,
    name         VARCHAR NOT NULL,
    set_count    INTEGER NOT NULL CHECK (set_count >= 1),
    rep_range    VARCHAR NOT NULL,
    weight       NUMERIC(8, 2) CHECK (weight >= 0),
    rest_seconds INTEGER CHECK (rest_seconds >= 0),
    notes        TEXT,
    ord          INTEGER NOT NULL,
    UNIQUE (template_id, ord)
);

CREATE TABLE IF NOT EXISTS public.workout_record
(
    id               SERIAL PRIMARY KEY,
    user_id          INTEGER     NOT NULL REFERENCES public.users (id) ON DELETE CASCADE,
    template_id      INTEGER     NOT NULL,
    executed_at      TIMESTAMPTZ NOT NULL,
    duration_seconds INTEGER CHECK (duration_seconds >= 0),
    total_volume     NUMERIC(12, 2) CHECK (total_volume >= 0),
    notes            TEXT
);
CREATE INDEX IF NOT EXISTS ix_workout_record_user_executed ON public.workout_record (user_id, executed_at DESC);

CREATE TABLE IF NOT EXISTS public.body_weight
(
    id          SERIAL PRIMARY KEY,
    user_id     INTEGER       NOT NULL REFERENCES public.users (id) ON DELETE CASCADE,
    weight      NUMERIC(6, 2) NOT NULL CHECK (weight > 0),
    measured_at TIMESTAMPTZ   NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_body_weight_user_measured ON public.body_weight (user_id, measured_at);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
