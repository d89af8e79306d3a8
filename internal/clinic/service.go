package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/smileworks/clinic-scheduling/internal/redis"
)

const (
	EventBookingCreated = "BOOKING_CREATED"
	EventStatusChanged  = "STATUS_CHANGED"
	EventBookingDeleted = "BOOKING_DELETED"
)

var (
	ErrInvalidDate       = errors.New("missing or unparsable date")
	ErrOutsideBlocks     = errors.New("time does not match a bookable block")
	ErrBlockPast         = errors.New("time block has already passed")
	ErrSlotTaken         = errors.New("slot already has an active booking")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrDailyCapReached   = errors.New("dentist has reached the daily booking limit")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
)

// MissingFieldsError reports every missing or unresolvable required field of
// a booking request in one shot.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// BookingRequest is the caller's proposed booking before normalization.
// Dentist and procedure resolve by id when set, otherwise by exact name.
type BookingRequest struct {
	PatientName   string
	Email         string
	Age           int
	Gender        string
	Phone         string
	Address       string
	Date          string
	Time          string
	DentistID     int64
	DentistName   string
	ProcedureID   int64
	ProcedureName string
	Notes         string
}

// Service is the slot allocator. It derives per-block availability, validates
// proposed bookings against the schedule and existing rows, and owns the
// status transition graph. The duplicate and capacity checks run inside a
// per-slot distributed lock; the storage layer's unique index backs the same
// invariant if the lock is unavailable.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	schedule Schedule
	dailyCap int
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, schedule Schedule, dailyCap int, log zerolog.Logger) *Service {
	if dailyCap <= 0 {
		dailyCap = len(schedule.Blocks)
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		schedule: schedule,
		dailyCap: dailyCap,
		log:      log,
		now:      time.Now,
	}
}

// GetSlots derives the availability of each block on the given date. The
// booked flag is only computed when a dentist is named; without one the query
// degrades to past checks alone.
func (s *Service) GetSlots(ctx context.Context, rawDate string, dentistID int64) ([]SlotAvailability, error) {
	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	now := s.now()
	result := make([]SlotAvailability, 0, len(s.schedule.Blocks))
	for _, block := range s.schedule.Blocks {
		past := s.schedule.Past(date, block, now)

		booked := false
		if dentistID != 0 {
			booked, err = s.repo.SlotTaken(ctx, date, block.Start, dentistID)
			if err != nil {
				return nil, fmt.Errorf("check slot %s: %w", block.Start, err)
			}
		}

		result = append(result, SlotAvailability{
			Time:      block.Start,
			Past:      past,
			Booked:    booked,
			Available: !past && !booked,
		})
	}
	return result, nil
}

// CreateBooking validates a proposed booking and inserts it as PENDING.
// Rejections are distinct by cause and checked in a fixed order: missing
// fields, non-block time, elapsed block, occupied slot, daily cap.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	b, missing, err := s.resolveRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	blockStart, err := NormalizeTime(req.Time)
	if err != nil {
		return nil, ErrOutsideBlocks
	}
	block, ok := s.schedule.BlockFor(blockStart)
	if !ok {
		return nil, ErrOutsideBlocks
	}
	b.BlockStart = blockStart

	if s.schedule.Past(b.VisitDate, block, s.now()) {
		return nil, ErrBlockPast
	}

	var created *Booking
	lockKey := fmt.Sprintf("%s:%s:%d", FormatDate(b.VisitDate), b.BlockStart, b.DentistID)

	err = s.locker.WithSlotLock(ctx, lockKey, func(lockCtx context.Context) error {
		taken, err := s.repo.SlotTaken(lockCtx, b.VisitDate, b.BlockStart, b.DentistID)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		count, err := s.repo.CountActiveBookings(lockCtx, b.VisitDate, b.DentistID)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if count >= s.dailyCap {
			return ErrDailyCapReached
		}

		created, err = s.repo.CreateBooking(lockCtx, b)
		if err != nil {
			return err
		}

		s.logEvent(lockCtx, created.ID, EventBookingCreated, map[string]any{
			"date":       FormatDate(created.VisitDate),
			"time":       created.BlockStart,
			"dentist_id": created.DentistID,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// resolveRequest trims and collects required fields, resolving dentist and
// procedure references. Every missing or unresolvable field lands in the
// returned list; only infrastructure failures return an error.
func (s *Service) resolveRequest(ctx context.Context, req BookingRequest) (*Booking, []string, error) {
	var missing []string

	b := &Booking{
		PatientName: strings.TrimSpace(req.PatientName),
		Email:       strings.TrimSpace(req.Email),
		Age:         req.Age,
		Gender:      strings.TrimSpace(req.Gender),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Notes:       strings.TrimSpace(req.Notes),
	}

	if b.PatientName == "" {
		missing = append(missing, "name")
	}
	if b.Email == "" {
		missing = append(missing, "email")
	}
	if b.Age <= 0 {
		missing = append(missing, "age")
	}
	if b.Gender == "" {
		missing = append(missing, "gender")
	}
	if b.Phone == "" {
		missing = append(missing, "phone")
	}
	if b.Address == "" {
		missing = append(missing, "address")
	}

	if date, err := ParseDate(req.Date); err != nil {
		missing = append(missing, "date")
	} else {
		b.VisitDate = date
	}
	if strings.TrimSpace(req.Time) == "" {
		missing = append(missing, "time")
	}

	dentist, err := s.resolveDentist(ctx, req.DentistID, req.DentistName)
	switch {
	case errors.Is(err, ErrDentistNotFound):
		missing = append(missing, "dentist")
	case err != nil:
		return nil, nil, fmt.Errorf("resolve dentist: %w", err)
	default:
		b.DentistID = dentist.ID
	}

	proc, err := s.resolveProcedure(ctx, req.ProcedureID, req.ProcedureName)
	switch {
	case errors.Is(err, ErrProcedureNotFound):
		missing = append(missing, "procedure")
	case err != nil:
		return nil, nil, fmt.Errorf("resolve procedure: %w", err)
	default:
		b.ProcedureID = proc.ID
	}

	return b, missing, nil
}

func (s *Service) resolveDentist(ctx context.Context, id int64, name string) (*Dentist, error) {
	if id != 0 {
		return s.repo.GetDentistByID(ctx, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrDentistNotFound
	}
	return s.repo.GetDentistByName(ctx, name)
}

func (s *Service) resolveProcedure(ctx context.Context, id int64, name string) (*Procedure, error) {
	if id != 0 {
		return s.repo.GetProcedureByID(ctx, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrProcedureNotFound
	}
	return s.repo.GetProcedureByName(ctx, name)
}

// UpdateStatus moves a booking along the explicit transition graph.
func (s *Service) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*Booking, error) {
	next, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, id, current.Status, next)
	if err != nil {
		// The guarded update loses only when the status moved between our
		// read and write, so surface that as a transition conflict.
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": string(current.Status),
		"to":   string(updated.Status),
	})
	return updated, nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error) {
	return s.repo.ListBookings(ctx, f)
}

func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.logEvent(ctx, id, EventBookingDeleted, map[string]any{})
	return nil
}

// ListPatients returns the reporting view synthesized from booking rows.
func (s *Service) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	return s.repo.ListPatients(ctx)
}

// Dentist and procedure reference data.

func (s *Service) ListDentists(ctx context.Context, activeOnly bool) ([]Dentist, error) {
	return s.repo.ListDentists(ctx, activeOnly)
}

func (s *Service) CreateDentist(ctx context.Context, name string) (*Dentist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &MissingFieldsError{Fields: []string{"name"}}
	}
	return s.repo.CreateDentist(ctx, name)
}

func (s *Service) SetDentistActive(ctx context.Context, id int64, active bool) (*Dentist, error) {
	return s.repo.SetDentistActive(ctx, id, active)
}

func (s *Service) ListProcedures(ctx context.Context) ([]Procedure, error) {
	return s.repo.ListProcedures(ctx)
}

func (s *Service) CreateProcedure(ctx context.Context, name string) (*Procedure, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &MissingFieldsError{Fields: []string{"name"}}
	}
	return s.repo.CreateProcedure(ctx, name)
}

// Reviews.

func (s *Service) CreateReview(ctx context.Context, r Review) (*Review, error) {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Comment = strings.TrimSpace(r.Comment)
	if r.PatientName == "" {
		return nil, &MissingFieldsError{Fields: []string{"name"}}
	}
	if r.Rating < 1 || r.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if r.BookingID != nil {
		if _, err := s.repo.GetBookingByID(ctx, *r.BookingID); err != nil {
			return nil, err
		}
	}
	return s.repo.CreateReview(ctx, &r)
}

func (s *Service) ListReviews(ctx context.Context, limit int) ([]Review, error) {
	return s.repo.ListReviews(ctx, limit)
}

// PruneEvents deletes audit events older than the retention window. Called by
// the retention worker.
func (s *Service) PruneEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.repo.PruneEvents(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return n, nil
}

// logEvent appends to the audit trail. Failures are logged, never fatal to
// the request that triggered them.
func (s *Service) logEvent(ctx context.Context, bookingID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	id := bookingID
	ev := BookingEvent{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Int64("booking_id", bookingID).Msg("insert booking event")
	}
}
