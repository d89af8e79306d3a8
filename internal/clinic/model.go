package clinic

import (
	"time"
)

// BookingStatus is the lifecycle state of a booking. PENDING and CONFIRMED
// count against slot and capacity checks; DECLINED and COMPLETED are terminal.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusDeclined  BookingStatus = "DECLINED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// ParseStatus maps a caller-supplied string onto a known status.
func ParseStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCompleted:
		return BookingStatus(s), true
	}
	return "", false
}

// Terminal reports whether the status excludes the booking from slot and
// capacity accounting.
func (s BookingStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted
}

// allowedTransitions is the explicit status graph. Terminal states have no
// outgoing edges.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusDeclined},
	StatusConfirmed: {StatusCompleted, StatusDeclined},
}

// CanTransitionTo reports whether the status graph permits moving to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          int64
	PatientName string
	Email       string
	Age         int
	Gender      string
	Phone       string
	Address     string
	VisitDate   time.Time // civil date, time portion ignored
	BlockStart  string    // HH:MM:SS
	DentistID   int64
	ProcedureID int64
	Notes       string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Dentist struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Procedure struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Review struct {
	ID          int64
	BookingID   *int64
	PatientName string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}

// PatientSummary is a reporting row derived from grouped bookings. There is
// no patients table; the key is COALESCE(email, name, phone) and the anchor
// booking id is the row a patient delete operates on.
type PatientSummary struct {
	Key             string
	Name            string
	Email           string
	Phone           string
	Visits          int
	LastVisit       time.Time
	AnchorBookingID int64
}

type BookingEvent struct {
	ID        int64
	EventType string
	BookingID *int64
	Payload   []byte
	CreatedAt time.Time
}

// SlotAvailability describes one block of a day for the slots query.
type SlotAvailability struct {
	Time      string
	Past      bool
	Booked    bool
	Available bool
}
