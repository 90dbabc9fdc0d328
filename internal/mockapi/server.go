// Package mockapi is an in-memory stand-in for the booking backend. It serves
// the same endpoints and envelopes so the frontend can run without the real
// service.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

const (
	msgNotAuthorized  = "Not Authorized Login Again"
	msgDoctorMissing  = "Doctor not found"
	msgDoctorOff      = "Doctor not available"
	msgSlotTaken      = "Slot not available"
	msgBooked         = "Appointment Booked"
	msgCancelled      = "Appointment Cancelled"
	msgUnauthorized   = "Unauthorized action"
	msgApptMissing    = "Appointment not found"
	msgApptCancelled  = "Appointment Cancelled or not found"
	msgInvalidRequest = "Invalid request body"
)

var specialities = []string{
	"General physician",
	"Gynecologist",
	"Dermatologist",
	"Pediatricians",
	"Neurologist",
	"Gastroenterologist",
}

// Server keeps doctors, users and appointments in memory.
type Server struct {
	mu           sync.Mutex
	doctorOrder  []string
	doctors      map[string]*backend.Doctor
	users        map[string]string // token -> user id
	appointments []*backend.Appointment
	currency     string
	now          func() time.Time
	logger       zerolog.Logger
}

func New(logger zerolog.Logger) *Server {
	return &Server{
		doctors:  make(map[string]*backend.Doctor),
		users:    make(map[string]string),
		currency: "INR",
		now:      time.Now,
		logger:   logger,
	}
}

// AddDoctor registers a doctor; an empty ID gets a fresh one.
func (s *Server) AddDoctor(d backend.Doctor) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.SlotsBooked == nil {
		d.SlotsBooked = slot.Bookings{}
	}
	if _, exists := s.doctors[d.ID]; !exists {
		s.doctorOrder = append(s.doctorOrder, d.ID)
	}
	doc := d
	s.doctors[d.ID] = &doc
	return d.ID
}

// AddUser makes token a valid session for userID.
func (s *Server) AddUser(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[token] = userID
}

// Seed adds count generated doctors.
func (s *Server) Seed(f *gofakeit.Faker, count int) []string {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.NewString()
		ids = append(ids, s.AddDoctor(backend.Doctor{
			ID:         id,
			Name:       "Dr. " + f.Name(),
			Email:      f.Email(),
			Image:      fmt.Sprintf("https://i.pravatar.cc/300?u=%s", id),
			Speciality: specialities[f.Number(0, len(specialities)-1)],
			Degree:     f.RandomString([]string{"MBBS", "MD", "MS", "BDS"}),
			Experience: fmt.Sprintf("%d Years", f.Number(1, 25)),
			About:      f.Sentence(24),
			Available:  true,
			Fees:       float64(f.Number(20, 120) * 5),
			Address: backend.Address{
				Line1: f.Street(),
				Line2: f.City(),
			},
		}))
	}
	return ids
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/doctor/list", s.listDoctors)
	r.Get("/api/user/my-appointments", s.myAppointments)
	r.Post("/api/user/book-appointment", s.bookAppointment)
	r.Post("/api/user/cancel-appointment", s.cancelAppointment)
	r.Post("/api/user/payment-razorpay", s.paymentRazorpay)
	return r
}

func (s *Server) listDoctors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	docs := make([]backend.Doctor, 0, len(s.doctorOrder))
	for _, id := range s.doctorOrder {
		docs = append(docs, copyDoctor(s.doctors[id]))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "doctors": docs})
}

func (s *Server) myAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(r)
	if !ok {
		writeFailure(w, msgNotAuthorized)
		return
	}

	s.mu.Lock()
	list := make([]backend.Appointment, 0)
	for _, a := range s.appointments {
		if a.UserID == userID {
			list = append(list, *a)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointments": list})
}

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(r)
	if !ok {
		writeFailure(w, msgNotAuthorized)
		return
	}

	var req backend.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, msgInvalidRequest)
		return
	}
	label := slot.NormalizeTimeLabel(string(req.SlotTime))

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.doctors[req.DocID]
	if !exists {
		writeFailure(w, msgDoctorMissing)
		return
	}
	if !doc.Available {
		writeFailure(w, msgDoctorOff)
		return
	}
	if doc.SlotsBooked.IsBooked(req.SlotDate, label) {
		writeFailure(w, msgSlotTaken)
		return
	}

	doc.SlotsBooked[req.SlotDate] = append(doc.SlotsBooked[req.SlotDate], label)

	appt := &backend.Appointment{
		ID:       uuid.NewString(),
		UserID:   userID,
		DocID:    doc.ID,
		SlotDate: req.SlotDate,
		SlotTime: label,
		DocData: &backend.DoctorSnapshot{
			Name:       doc.Name,
			Image:      doc.Image,
			Speciality: doc.Speciality,
			Address:    doc.Address,
		},
		Amount: doc.Fees,
		Date:   s.now().UnixMilli(),
	}
	s.appointments = append(s.appointments, appt)

	s.logger.Info().Str("appointment_id", appt.ID).Str("doc_id", doc.ID).
		Str("slot_date", string(req.SlotDate)).Str("slot_time", string(label)).Msg("appointment booked")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgBooked})
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(r)
	if !ok {
		writeFailure(w, msgNotAuthorized)
		return
	}

	var req struct {
		AppointmentID string `json:"appointmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, msgInvalidRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt := s.findAppointment(req.AppointmentID)
	if appt == nil {
		writeFailure(w, msgApptMissing)
		return
	}
	if appt.UserID != userID {
		writeFailure(w, msgUnauthorized)
		return
	}

	if !appt.Cancelled {
		appt.Cancelled = true
		if doc, exists := s.doctors[appt.DocID]; exists {
			doc.SlotsBooked[appt.SlotDate] = without(doc.SlotsBooked[appt.SlotDate], appt.SlotTime)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgCancelled})
}

func (s *Server) paymentRazorpay(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.user(r)
	if !ok {
		writeFailure(w, msgNotAuthorized)
		return
	}

	var req struct {
		AppointmentID string `json:"appointmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, msgInvalidRequest)
		return
	}

	s.mu.Lock()
	appt := s.findAppointment(req.AppointmentID)
	var order backend.Order
	if appt != nil {
		order = backend.Order{
			ID:       "order_" + uuid.NewString(),
			Amount:   int64(appt.Amount * 100),
			Currency: s.currency,
			Receipt:  appt.ID,
		}
	}
	s.mu.Unlock()

	if appt == nil || appt.Cancelled || appt.UserID != userID {
		writeFailure(w, msgApptCancelled)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (s *Server) user(r *http.Request) (string, bool) {
	token := r.Header.Get("token")
	if token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.users[token]
	return id, ok
}

func (s *Server) findAppointment(id string) *backend.Appointment {
	for _, a := range s.appointments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func copyDoctor(d *backend.Doctor) backend.Doctor {
	out := *d
	out.SlotsBooked = make(slot.Bookings, len(d.SlotsBooked))
	for k, v := range d.SlotsBooked {
		out.SlotsBooked[k] = append([]slot.TimeLabel(nil), v...)
	}
	return out
}

func without(labels []slot.TimeLabel, label slot.TimeLabel) []slot.TimeLabel {
	out := labels[:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure mirrors the backend: business failures are 200 with success:false.
func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": message})
}
