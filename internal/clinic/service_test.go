package clinic

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu         sync.Mutex
	dentists   map[int64]*Dentist
	procedures map[int64]*Procedure
	bookings   map[int64]*Booking
	reviews    map[int64]*Review
	events     []BookingEvent
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		dentists:   make(map[int64]*Dentist),
		procedures: make(map[int64]*Procedure),
		bookings:   make(map[int64]*Booking),
		reviews:    make(map[int64]*Review),
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) GetDentistByID(_ context.Context, id int64) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.dentists[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrDentistNotFound
}

func (m *memRepo) GetDentistByName(_ context.Context, name string) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dentists {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDentistNotFound
}

func (m *memRepo) ListDentists(_ context.Context, activeOnly bool) ([]Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Dentist
	for _, d := range m.dentists {
		if activeOnly && !d.Active {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) CreateDentist(_ context.Context, name string) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &Dentist{ID: m.id(), Name: name, Active: true}
	m.dentists[d.ID] = d
	cp := *d
	return &cp, nil
}

func (m *memRepo) SetDentistActive(_ context.Context, id int64, active bool) (*Dentist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dentists[id]
	if !ok {
		return nil, ErrDentistNotFound
	}
	d.Active = active
	cp := *d
	return &cp, nil
}

func (m *memRepo) GetProcedureByID(_ context.Context, id int64) (*Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.procedures[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrProcedureNotFound
}

func (m *memRepo) GetProcedureByName(_ context.Context, name string) (*Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.procedures {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProcedureNotFound
}

func (m *memRepo) ListProcedures(_ context.Context) ([]Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Procedure
	for _, p := range m.procedures {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) CreateProcedure(_ context.Context, name string) (*Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Procedure{ID: m.id(), Name: name}
	m.procedures[p.ID] = p
	cp := *p
	return &cp, nil
}

func sameDate(a, b time.Time) bool {
	return FormatDate(a) == FormatDate(b)
}

func (m *memRepo) SlotTaken(_ context.Context, date time.Time, blockStart string, dentistID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if sameDate(b.VisitDate, date) && b.BlockStart == blockStart && b.DentistID == dentistID && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CountActiveBookings(_ context.Context, date time.Time, dentistID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if sameDate(b.VisitDate, date) && b.DentistID == dentistID && !b.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CreateBooking(_ context.Context, b *Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirror the partial unique index.
	for _, existing := range m.bookings {
		if sameDate(existing.VisitDate, b.VisitDate) && existing.BlockStart == b.BlockStart &&
			existing.DentistID == b.DentistID && !existing.Status.Terminal() {
			return nil, ErrSlotTaken
		}
	}
	cp := *b
	cp.ID = m.id()
	cp.Status = StatusPending
	m.bookings[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) GetBookingByID(_ context.Context, id int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, ErrBookingNotFound
}

func (m *memRepo) ListBookings(_ context.Context, f BookingFilter) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if f.Date != nil && !sameDate(b.VisitDate, *f.Date) {
			continue
		}
		if f.DentistID != 0 && b.DentistID != f.DentistID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) UpdateBookingStatus(_ context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return nil, ErrBookingNotFound
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

func (m *memRepo) DeleteBooking(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memRepo) ListPatients(_ context.Context) ([]PatientSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := make(map[string]*PatientSummary)
	for _, b := range m.bookings {
		key := b.Email
		if key == "" {
			key = b.PatientName
		}
		if key == "" {
			key = b.Phone
		}
		p, ok := groups[key]
		if !ok {
			p = &PatientSummary{Key: key}
			groups[key] = p
		}
		p.Visits++
		if b.PatientName > p.Name {
			p.Name = b.PatientName
		}
		if b.Email > p.Email {
			p.Email = b.Email
		}
		if b.Phone > p.Phone {
			p.Phone = b.Phone
		}
		if b.VisitDate.After(p.LastVisit) {
			p.LastVisit = b.VisitDate
		}
		if b.ID > p.AnchorBookingID {
			p.AnchorBookingID = b.ID
		}
	}
	var out []PatientSummary
	for _, p := range groups {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memRepo) CreateReview(_ context.Context, r *Review) (*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.ID = m.id()
	m.reviews[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) ListReviews(_ context.Context, limit int) ([]Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Review
	for _, r := range m.reviews {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memRepo) PruneEvents(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []BookingEvent
	var pruned int64
	for _, ev := range m.events {
		if ev.CreatedAt.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return pruned, nil
}

// passLocker runs the critical section directly.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Test fixtures

const (
	futureDate = "2025-03-15"
	todayDate  = "2025-03-10"
)

// fixedNow is 12:30 clinic time on todayDate: the two morning blocks have
// elapsed, the two afternoon blocks have not.
func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 30, 0, 0, DefaultSchedule().Location)
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(repo, passLocker{}, DefaultSchedule(), 4, zerolog.Nop())
	svc.now = fixedNow

	if _, err := repo.CreateDentist(context.Background(), "Dr. Alice Wong"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateProcedure(context.Background(), "Cleaning"); err != nil {
		t.Fatal(err)
	}
	return svc, repo
}

func validRequest() BookingRequest {
	return BookingRequest{
		PatientName: "Ben Tan",
		Email:       "ben@example.com",
		Age:         34,
		Gender:      "male",
		Phone:       "555-0101",
		Address:     "12 Orchard Rd",
		Date:        futureDate,
		Time:        "10:00",
		DentistID:   1,
		ProcedureID: 2,
	}
}

// Slots

func TestGetSlots_AllAvailableOnEmptyFutureDate(t *testing.T) {
	svc, _ := newTestService(t)

	slots, err := svc.GetSlots(context.Background(), futureDate, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if !s.Available || s.Past || s.Booked {
			t.Errorf("slot %s: got %+v, want available", s.Time, s)
		}
	}
}

func TestGetSlots_PastBlocksToday(t *testing.T) {
	svc, _ := newTestService(t)

	slots, err := svc.GetSlots(context.Background(), todayDate, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPast := map[string]bool{
		"08:00:00": true,
		"10:00:00": true,
		"13:00:00": false,
		"15:00:00": false,
	}
	for _, s := range slots {
		if s.Past != wantPast[s.Time] {
			t.Errorf("slot %s: past = %v, want %v", s.Time, s.Past, wantPast[s.Time])
		}
		if s.Available == s.Past {
			t.Errorf("slot %s: available = %v with past = %v", s.Time, s.Available, s.Past)
		}
	}
}

func TestGetSlots_BookedBlock(t *testing.T) {
	svc, repo := newTestService(t)

	created, err := svc.CreateBooking(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := repo.UpdateBookingStatus(context.Background(), created.ID, StatusPending, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	slots, err := svc.GetSlots(context.Background(), futureDate, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		wantBooked := s.Time == "10:00:00"
		if s.Booked != wantBooked {
			t.Errorf("slot %s: booked = %v, want %v", s.Time, s.Booked, wantBooked)
		}
		if s.Available != !wantBooked {
			t.Errorf("slot %s: available = %v, want %v", s.Time, s.Available, !wantBooked)
		}
	}
}

func TestGetSlots_NoDentistDegradesToPastOnly(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateBooking(context.Background(), validRequest()); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	slots, err := svc.GetSlots(context.Background(), futureDate, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		if s.Booked {
			t.Errorf("slot %s: booked must be false without a dentist filter", s.Time)
		}
	}
}

func TestGetSlots_MissingDate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.GetSlots(context.Background(), "", 1); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.GetSlots(context.Background(), "soon", 1); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for garbage date, got %v", err)
	}
}

// Booking creation

func TestCreateBooking_Success(t *testing.T) {
	svc, _ := newTestService(t)

	b, err := svc.CreateBooking(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected an assigned id")
	}
	if b.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if b.BlockStart != "10:00:00" {
		t.Errorf("block start = %q, want normalized 10:00:00", b.BlockStart)
	}
}

func TestCreateBooking_CollectsAllMissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	req := BookingRequest{
		PatientName: "  ",
		Gender:      "female",
		Date:        "not-a-date",
		Time:        "10:00",
		DentistID:   99, // unresolvable
		ProcedureID: 2,
	}

	_, err := svc.CreateBooking(context.Background(), req)
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}

	want := []string{"name", "email", "age", "phone", "address", "date", "dentist"}
	got := strings.Join(missing.Fields, ",")
	for _, f := range want {
		if !strings.Contains(got, f) {
			t.Errorf("missing fields %q: want %q included", got, f)
		}
	}
	if strings.Contains(got, "gender") || strings.Contains(got, "procedure") {
		t.Errorf("missing fields %q must not include supplied fields", got)
	}
}

func TestCreateBooking_ResolvesByName(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.DentistID = 0
	req.DentistName = "Dr. Alice Wong"
	req.ProcedureID = 0
	req.ProcedureName = "Cleaning"

	b, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.DentistID != 1 || b.ProcedureID != 2 {
		t.Errorf("resolved ids = (%d, %d), want (1, 2)", b.DentistID, b.ProcedureID)
	}
}

func TestCreateBooking_OutsideBlocks(t *testing.T) {
	svc, _ := newTestService(t)

	// 2:00 PM normalizes to 14:00:00, which starts no block.
	req := validRequest()
	req.Time = "2:00 PM"
	if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, ErrOutsideBlocks) {
		t.Errorf("expected ErrOutsideBlocks for 2:00 PM, got %v", err)
	}

	req.Time = "09:00"
	if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, ErrOutsideBlocks) {
		t.Errorf("expected ErrOutsideBlocks for 09:00, got %v", err)
	}
}

func TestCreateBooking_PastBlock(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.Date = todayDate
	req.Time = "08:00" // elapsed at fixedNow
	if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, ErrBlockPast) {
		t.Errorf("expected ErrBlockPast, got %v", err)
	}

	// Afternoon block on the same day is still bookable.
	req.Time = "13:00"
	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Errorf("expected afternoon booking to succeed, got %v", err)
	}
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateBooking(context.Background(), validRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	req := validRequest()
	req.PatientName = "Carol Lim"
	req.Email = "carol@example.com"
	if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestCreateBooking_SlotFreedByTerminalStatus(t *testing.T) {
	svc, repo := newTestService(t)

	first, err := svc.CreateBooking(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := repo.UpdateBookingStatus(context.Background(), first.ID, StatusPending, StatusDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// A declined booking releases the slot.
	if _, err := svc.CreateBooking(context.Background(), validRequest()); err != nil {
		t.Errorf("expected rebooking of a declined slot to succeed, got %v", err)
	}
}

func TestCreateBooking_DailyCapReached(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, passLocker{}, DefaultSchedule(), 2, zerolog.Nop())
	svc.now = fixedNow

	if _, err := repo.CreateDentist(context.Background(), "Dr. Alice Wong"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateProcedure(context.Background(), "Cleaning"); err != nil {
		t.Fatal(err)
	}

	for _, blockTime := range []string{"08:00", "10:00"} {
		req := validRequest()
		req.Time = blockTime
		if _, err := svc.CreateBooking(context.Background(), req); err != nil {
			t.Fatalf("booking at %s: %v", blockTime, err)
		}
	}

	req := validRequest()
	req.Time = "13:00"
	if _, err := svc.CreateBooking(context.Background(), req); !errors.Is(err, ErrDailyCapReached) {
		t.Errorf("expected ErrDailyCapReached, got %v", err)
	}
}

func TestCreateBooking_EmitsEvent(t *testing.T) {
	svc, repo := newTestService(t)

	if _, err := svc.CreateBooking(context.Background(), validRequest()); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if len(repo.events) != 1 || repo.events[0].EventType != EventBookingCreated {
		t.Errorf("expected one %s event, got %+v", EventBookingCreated, repo.events)
	}
}

// Status transitions

func TestUpdateStatus_PendingToConfirmed(t *testing.T) {
	svc, _ := newTestService(t)

	b, err := svc.CreateBooking(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), b.ID, "CONFIRMED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", updated.Status)
	}

	// Reflected in subsequent reads.
	got, err := svc.GetBooking(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("read-back status = %s, want CONFIRMED", got.Status)
	}
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	svc, _ := newTestService(t)

	b, _ := svc.CreateBooking(context.Background(), validRequest())
	if _, err := svc.UpdateStatus(context.Background(), b.ID, "CANCELLED"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.UpdateStatus(context.Background(), 404, "CONFIRMED"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestUpdateStatus_TransitionGraph(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      string
		allowed bool
	}{
		{StatusPending, "CONFIRMED", true},
		{StatusPending, "DECLINED", true},
		{StatusPending, "COMPLETED", false},
		{StatusConfirmed, "COMPLETED", true},
		{StatusConfirmed, "DECLINED", true},
		{StatusConfirmed, "PENDING", false},
		{StatusCompleted, "PENDING", false},
		{StatusDeclined, "CONFIRMED", false},
	}

	for _, tt := range tests {
		svc, repo := newTestService(t)
		b, err := svc.CreateBooking(context.Background(), validRequest())
		if err != nil {
			t.Fatalf("create booking: %v", err)
		}
		repo.bookings[b.ID].Status = tt.from

		_, err = svc.UpdateStatus(context.Background(), b.ID, tt.to)
		if tt.allowed && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.allowed && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

// Patients

func TestListPatients_GroupsBookings(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Same patient, different slot: one group with two visits.
	req.Time = "13:00"
	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Fatalf("second booking: %v", err)
	}

	other := validRequest()
	other.PatientName = "Carol Lim"
	other.Email = "carol@example.com"
	other.Time = "15:00"
	if _, err := svc.CreateBooking(context.Background(), other); err != nil {
		t.Fatalf("third booking: %v", err)
	}

	patients, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(patients))
	}

	for _, p := range patients {
		if p.Key == "ben@example.com" && p.Visits != 2 {
			t.Errorf("ben: visits = %d, want 2", p.Visits)
		}
		if p.Key == "carol@example.com" && p.Visits != 1 {
			t.Errorf("carol: visits = %d, want 1", p.Visits)
		}
	}
}

// Reviews

func TestCreateReview_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateReview(context.Background(), Review{PatientName: "Ben", Rating: 6}); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("rating 6: expected ErrInvalidRating, got %v", err)
	}
	if _, err := svc.CreateReview(context.Background(), Review{PatientName: "Ben", Rating: 0}); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("rating 0: expected ErrInvalidRating, got %v", err)
	}

	var missing *MissingFieldsError
	if _, err := svc.CreateReview(context.Background(), Review{Rating: 5}); !errors.As(err, &missing) {
		t.Errorf("empty name: expected MissingFieldsError, got %v", err)
	}

	rv, err := svc.CreateReview(context.Background(), Review{PatientName: "Ben", Rating: 5, Comment: "painless"})
	if err != nil {
		t.Fatalf("valid review: %v", err)
	}
	if rv.ID == 0 {
		t.Error("expected an assigned review id")
	}

	unknown := int64(404)
	if _, err := svc.CreateReview(context.Background(), Review{PatientName: "Ben", Rating: 4, BookingID: &unknown}); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("unknown booking: expected ErrBookingNotFound, got %v", err)
	}
}

// Event retention

func TestPruneEvents(t *testing.T) {
	svc, repo := newTestService(t)

	old := fixedNow().Add(-100 * 24 * time.Hour)
	repo.events = append(repo.events,
		BookingEvent{EventType: EventBookingCreated, CreatedAt: old},
		BookingEvent{EventType: EventBookingCreated, CreatedAt: fixedNow().Add(-time.Hour)},
	)

	pruned, err := svc.PruneEvents(context.Background(), 90*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if len(repo.events) != 1 {
		t.Errorf("remaining events = %d, want 1", len(repo.events))
	}
}
