package api

import (
	"time"

	"github.com/smileworks/clinic-scheduling/internal/clinic"
)

type CreateBookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DentistID   int64  `json:"dentist_id,omitempty"`
	Dentist     string `json:"dentist,omitempty"`
	ProcedureID int64  `json:"procedure_id,omitempty"`
	Procedure   string `json:"procedure,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DentistID   int64  `json:"dentist_id"`
	ProcedureID int64  `json:"procedure_id"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
}

func toBookingResponse(b *clinic.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		Name:        b.PatientName,
		Email:       b.Email,
		Age:         b.Age,
		Gender:      b.Gender,
		Phone:       b.Phone,
		Address:     b.Address,
		Date:        clinic.FormatDate(b.VisitDate),
		Time:        b.BlockStart,
		DentistID:   b.DentistID,
		ProcedureID: b.ProcedureID,
		Notes:       b.Notes,
		Status:      string(b.Status),
	}
}

type SlotResponse struct {
	Time      string `json:"time"`
	Past      bool   `json:"past"`
	Booked    bool   `json:"booked"`
	Available bool   `json:"available"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type PatientResponse struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Visits          int    `json:"visits"`
	LastVisit       string `json:"last_visit"`
	AnchorBookingID int64  `json:"anchor_booking_id"`
}

type DentistResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type CreateDentistRequest struct {
	Name string `json:"name"`
}

type SetDentistActiveRequest struct {
	Active bool `json:"active"`
}

type ProcedureResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CreateProcedureRequest struct {
	Name string `json:"name"`
}

type CreateReviewRequest struct {
	BookingID *int64 `json:"booking_id,omitempty"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ID        int64     `json:"id"`
	BookingID *int64    `json:"booking_id,omitempty"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}
