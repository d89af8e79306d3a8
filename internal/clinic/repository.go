package clinic

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDentistNotFound   = errors.New("dentist not found")
	ErrProcedureNotFound = errors.New("procedure not found")
	ErrBookingNotFound   = errors.New("booking not found")
)

// BookingFilter narrows a booking listing. Zero values mean "no filter".
type BookingFilter struct {
	Date      *time.Time
	DentistID int64
	Status    BookingStatus
	Limit     int
	Offset    int
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDentistByID(ctx context.Context, id int64) (*Dentist, error)
	GetDentistByName(ctx context.Context, name string) (*Dentist, error)
	ListDentists(ctx context.Context, activeOnly bool) ([]Dentist, error)
	CreateDentist(ctx context.Context, name string) (*Dentist, error)
	SetDentistActive(ctx context.Context, id int64, active bool) (*Dentist, error)

	GetProcedureByID(ctx context.Context, id int64) (*Procedure, error)
	GetProcedureByName(ctx context.Context, name string) (*Procedure, error)
	ListProcedures(ctx context.Context) ([]Procedure, error)
	CreateProcedure(ctx context.Context, name string) (*Procedure, error)

	// Slot and capacity checks, counting non-terminal bookings only.
	SlotTaken(ctx context.Context, date time.Time, blockStart string, dentistID int64) (bool, error)
	CountActiveBookings(ctx context.Context, date time.Time, dentistID int64) (int, error)

	// CreateBooking inserts one PENDING row. A unique violation on the
	// active-slot index must surface as ErrSlotTaken.
	CreateBooking(ctx context.Context, b *Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id int64) (*Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error)
	DeleteBooking(ctx context.Context, id int64) error

	// Reporting view over grouped bookings.
	ListPatients(ctx context.Context) ([]PatientSummary, error)

	CreateReview(ctx context.Context, r *Review) (*Review, error)
	ListReviews(ctx context.Context, limit int) ([]Review, error)

	// Audit trail.
	InsertEvent(ctx context.Context, ev BookingEvent) error
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}
