package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently at startup. The partial unique index on
// (visit_date, block_start, dentist_id) over non-terminal statuses is what
// makes the no-double-booking invariant hold even without the Redis lock.
const schema = `
CREATE TABLE IF NOT EXISTS dentists (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS procedures (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id BIGSERIAL PRIMARY KEY,
	patient_name TEXT NOT NULL,
	email TEXT NOT NULL,
	age INT NOT NULL,
	gender TEXT NOT NULL,
	phone TEXT NOT NULL,
	address TEXT NOT NULL,
	visit_date DATE NOT NULL,
	block_start TEXT NOT NULL,
	dentist_id BIGINT NOT NULL REFERENCES dentists(id),
	procedure_id BIGINT NOT NULL REFERENCES procedures(id),
	notes TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'PENDING',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_slot_idx
	ON bookings (visit_date, block_start, dentist_id)
	WHERE status IN ('PENDING', 'CONFIRMED');

CREATE INDEX IF NOT EXISTS bookings_dentist_date_idx
	ON bookings (dentist_id, visit_date);

CREATE TABLE IF NOT EXISTS reviews (
	id BIGSERIAL PRIMARY KEY,
	booking_id BIGINT REFERENCES bookings(id) ON DELETE SET NULL,
	patient_name TEXT NOT NULL,
	rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS booking_events (
	id BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	booking_id BIGINT,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS booking_events_created_idx
	ON booking_events (created_at);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
