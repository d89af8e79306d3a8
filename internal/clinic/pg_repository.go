package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDentist(row pgx.Row) (*Dentist, error) {
	var d Dentist
	err := row.Scan(&d.ID, &d.Name, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProcedureNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.PatientName,
		&b.Email,
		&b.Age,
		&b.Gender,
		&b.Phone,
		&b.Address,
		&b.VisitDate,
		&b.BlockStart,
		&b.DentistID,
		&b.ProcedureID,
		&b.Notes,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.BookingID, &r.PatientName, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const bookingColumns = `id, patient_name, email, age, gender, phone, address,
	visit_date, block_start, dentist_id, procedure_id, notes, status, created_at, updated_at`

// Dentists

func (r *PgRepository) GetDentistByID(ctx context.Context, id int64) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM dentists
		WHERE id = $1
	`, id)
	return scanDentist(row)
}

func (r *PgRepository) GetDentistByName(ctx context.Context, name string) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM dentists
		WHERE name = $1
	`, name)
	return scanDentist(row)
}

func (r *PgRepository) ListDentists(ctx context.Context, activeOnly bool) ([]Dentist, error) {
	q := `
		SELECT id, name, active, created_at, updated_at
		FROM dentists
	`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Dentist
	for rows.Next() {
		d, err := scanDentist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateDentist(ctx context.Context, name string) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO dentists (name, active, created_at, updated_at)
		VALUES ($1, TRUE, now(), now())
		RETURNING id, name, active, created_at, updated_at
	`, name)
	return scanDentist(row)
}

func (r *PgRepository) SetDentistActive(ctx context.Context, id int64, active bool) (*Dentist, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE dentists
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, active, created_at, updated_at
	`, id, active)
	return scanDentist(row)
}

// Procedures

func (r *PgRepository) GetProcedureByID(ctx context.Context, id int64) (*Procedure, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM procedures
		WHERE id = $1
	`, id)
	return scanProcedure(row)
}

func (r *PgRepository) GetProcedureByName(ctx context.Context, name string) (*Procedure, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM procedures
		WHERE name = $1
	`, name)
	return scanProcedure(row)
}

func (r *PgRepository) ListProcedures(ctx context.Context) ([]Procedure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM procedures
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateProcedure(ctx context.Context, name string) (*Procedure, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO procedures (name, created_at)
		VALUES ($1, now())
		RETURNING id, name, created_at
	`, name)
	return scanProcedure(row)
}

// Bookings

func (r *PgRepository) SlotTaken(ctx context.Context, date time.Time, blockStart string, dentistID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE visit_date = $1
			  AND block_start = $2
			  AND dentist_id = $3
			  AND status IN ('PENDING', 'CONFIRMED')
		)
	`, date, blockStart, dentistID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *PgRepository) CountActiveBookings(ctx context.Context, date time.Time, dentistID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE visit_date = $1
		  AND dentist_id = $2
		  AND status IN ('PENDING', 'CONFIRMED')
	`, date, dentistID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (patient_name, email, age, gender, phone, address,
			visit_date, block_start, dentist_id, procedure_id, notes, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'PENDING', now(), now())
		RETURNING `+bookingColumns+`
	`, b.PatientName, b.Email, b.Age, b.Gender, b.Phone, b.Address,
		b.VisitDate, b.BlockStart, b.DentistID, b.ProcedureID, b.Notes)

	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE TRUE`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Date != nil {
		q += ` AND visit_date = ` + arg(*f.Date)
	}
	if f.DentistID != 0 {
		q += ` AND dentist_id = ` + arg(f.DentistID)
	}
	if f.Status != "" {
		q += ` AND status = ` + arg(f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q += ` ORDER BY visit_date DESC, block_start DESC, id DESC`
	q += ` LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns+`
	`, id, to, from)
	return scanBooking(row)
}

func (r *PgRepository) DeleteBooking(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Patients

// ListPatients synthesizes the patient view by grouping bookings on the
// coalesced identity key. Representative fields take the group maximum.
func (r *PgRepository) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			COALESCE(NULLIF(email, ''), NULLIF(patient_name, ''), phone) AS patient_key,
			MAX(patient_name),
			MAX(email),
			MAX(phone),
			COUNT(*),
			MAX(visit_date),
			MAX(id)
		FROM bookings
		GROUP BY patient_key
		ORDER BY MAX(visit_date) DESC, patient_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PatientSummary
	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.Key, &p.Name, &p.Email, &p.Phone, &p.Visits, &p.LastVisit, &p.AnchorBookingID); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Reviews

func (r *PgRepository) CreateReview(ctx context.Context, rv *Review) (*Review, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (booking_id, patient_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, booking_id, patient_name, rating, comment, created_at
	`, rv.BookingID, rv.PatientName, rv.Rating, rv.Comment)
	return scanReview(row)
}

func (r *PgRepository) ListReviews(ctx context.Context, limit int) ([]Review, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, patient_name, rating, comment, created_at
		FROM reviews
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rv)
	}
	return result, rows.Err()
}

// Events

func (r *PgRepository) InsertEvent(ctx context.Context, ev BookingEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}
	return nil
}

func (r *PgRepository) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM booking_events
		WHERE created_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("prune booking events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
