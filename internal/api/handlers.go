package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/smileworks/clinic-scheduling/internal/clinic"
)

type Handlers struct {
	svc *clinic.Service
	log zerolog.Logger
}

func NewHandlers(svc *clinic.Service, log zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// GET /api/slots?date=...&dentist_id=...
func (h *Handlers) GetSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	var dentistID int64
	if v := r.URL.Query().Get("dentist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be an integer")
			return
		}
		dentistID = id
	}

	slots, err := h.svc.GetSlots(r.Context(), date, dentistID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		resp = append(resp, SlotResponse{
			Time:      s.Time,
			Past:      s.Past,
			Booked:    s.Booked,
			Available: s.Available,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	booking, err := h.svc.CreateBooking(r.Context(), clinic.BookingRequest{
		PatientName:   req.Name,
		Email:         req.Email,
		Age:           req.Age,
		Gender:        req.Gender,
		Phone:         req.Phone,
		Address:       req.Address,
		Date:          req.Date,
		Time:          req.Time,
		DentistID:     req.DentistID,
		DentistName:   req.Dentist,
		ProcedureID:   req.ProcedureID,
		ProcedureName: req.Procedure,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, StatusResponse{ID: booking.ID, Status: string(booking.Status)})
}

// GET /api/bookings
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f clinic.BookingFilter

	if v := q.Get("date"); v != "" {
		date, err := clinic.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD or MM/DD/YYYY")
			return
		}
		f.Date = &date
	}
	if v := q.Get("dentist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be an integer")
			return
		}
		f.DentistID = id
	}
	if v := q.Get("status"); v != "" {
		status, ok := clinic.ParseStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown status value")
			return
		}
		f.Status = status
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	bookings, err := h.svc.ListBookings(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/bookings/{id}
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	booking, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// PATCH /api/bookings/{id}/status
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	booking, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{ID: booking.ID, Status: string(booking.Status)})
}

// DELETE /api/bookings/{id}
func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteBooking(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/patients
func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.svc.ListPatients(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, PatientResponse{
			Key:             p.Key,
			Name:            p.Name,
			Email:           p.Email,
			Phone:           p.Phone,
			Visits:          p.Visits,
			LastVisit:       clinic.FormatDate(p.LastVisit),
			AnchorBookingID: p.AnchorBookingID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DELETE /api/patients/{bookingID} removes the anchor booking row; patients
// have no storage of their own.
func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "bookingID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "bookingID must be an integer")
		return
	}

	if err := h.svc.DeleteBooking(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/dentists?active=true
func (h *Handlers) ListDentists(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	dentists, err := h.svc.ListDentists(r.Context(), activeOnly)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]DentistResponse, 0, len(dentists))
	for _, d := range dentists {
		resp = append(resp, DentistResponse{ID: d.ID, Name: d.Name, Active: d.Active})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/dentists
func (h *Handlers) CreateDentist(w http.ResponseWriter, r *http.Request) {
	var req CreateDentistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	dentist, err := h.svc.CreateDentist(r.Context(), req.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DentistResponse{ID: dentist.ID, Name: dentist.Name, Active: dentist.Active})
}

// PATCH /api/dentists/{id}/active
func (h *Handlers) SetDentistActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req SetDentistActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	dentist, err := h.svc.SetDentistActive(r.Context(), id, req.Active)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DentistResponse{ID: dentist.ID, Name: dentist.Name, Active: dentist.Active})
}

// GET /api/procedures
func (h *Handlers) ListProcedures(w http.ResponseWriter, r *http.Request) {
	procedures, err := h.svc.ListProcedures(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]ProcedureResponse, 0, len(procedures))
	for _, p := range procedures {
		resp = append(resp, ProcedureResponse{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/procedures
func (h *Handlers) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req CreateProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	procedure, err := h.svc.CreateProcedure(r.Context(), req.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProcedureResponse{ID: procedure.ID, Name: procedure.Name})
}

// GET /api/reviews
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reviews, err := h.svc.ListReviews(r.Context(), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		resp = append(resp, ReviewResponse{
			ID:        rv.ID,
			BookingID: rv.BookingID,
			Name:      rv.PatientName,
			Rating:    rv.Rating,
			Comment:   rv.Comment,
			CreatedAt: rv.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/reviews
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	review, err := h.svc.CreateReview(r.Context(), clinic.Review{
		BookingID:   req.BookingID,
		PatientName: req.Name,
		Rating:      req.Rating,
		Comment:     req.Comment,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReviewResponse{
		ID:        review.ID,
		BookingID: review.BookingID,
		Name:      review.PatientName,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be an integer")
		return 0, false
	}
	return id, true
}

// handleError maps service errors onto stable per-cause codes. Anything
// unrecognized is an infrastructure failure: logged in full, surfaced as an
// opaque internal_error.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *clinic.MissingFieldsError
	if errors.As(err, &missing) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Details: missing.Error(),
			Fields:  missing.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, clinic.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "missing_date", err.Error())
	case errors.Is(err, clinic.ErrOutsideBlocks):
		writeError(w, http.StatusBadRequest, "outside_blocks", err.Error())
	case errors.Is(err, clinic.ErrBlockPast):
		writeError(w, http.StatusBadRequest, "block_past", err.Error())
	case errors.Is(err, clinic.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, clinic.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, clinic.ErrDailyCapReached):
		writeError(w, http.StatusConflict, "daily_cap_reached", err.Error())
	case errors.Is(err, clinic.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, clinic.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, clinic.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "invalid_rating", err.Error())
	case errors.Is(err, clinic.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, clinic.ErrDentistNotFound):
		writeError(w, http.StatusNotFound, "dentist_not_found", err.Error())
	case errors.Is(err, clinic.ErrProcedureNotFound):
		writeError(w, http.StatusNotFound, "procedure_not_found", err.Error())
	default:
		h.log.Error().Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
