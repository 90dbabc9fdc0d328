package backend

import (
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

type Address struct {
	Line1 string `json:"line1,omitempty"`
	Line2 string `json:"line2,omitempty"`
}

type Doctor struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Email       string        `json:"email,omitempty"`
	Image       string        `json:"image"`
	Speciality  string        `json:"speciality"`
	Degree      string        `json:"degree"`
	Experience  string        `json:"experience"`
	About       string        `json:"about"`
	Available   bool          `json:"available"`
	Fees        float64       `json:"fees"`
	Address     Address       `json:"address"`
	SlotsBooked slot.Bookings `json:"slots_booked"`
}

// DoctorSnapshot is the doctor copy embedded in an appointment. Any field may
// be missing.
type DoctorSnapshot struct {
	Name       string  `json:"name,omitempty"`
	Image      string  `json:"image,omitempty"`
	Speciality string  `json:"speciality,omitempty"`
	Address    Address `json:"address,omitempty"`
}

type Appointment struct {
	ID          string          `json:"_id"`
	UserID      string          `json:"userId,omitempty"`
	DocID       string          `json:"docId"`
	SlotDate    slot.DateKey    `json:"slotDate"`
	SlotTime    slot.TimeLabel  `json:"slotTime"`
	DocData     *DoctorSnapshot `json:"docData,omitempty"`
	Amount      float64         `json:"amount,omitempty"`
	Date        int64           `json:"date,omitempty"`
	Cancelled   bool            `json:"cancelled"`
	Payment     bool            `json:"payment"`
	IsCompleted bool            `json:"isCompleted"`
}

// Order is a payment order created by the backend for one appointment.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type BookRequest struct {
	DocID    string         `json:"docId"`
	SlotDate slot.DateKey   `json:"slotDate"`
	SlotTime slot.TimeLabel `json:"slotTime"`
}

type appointmentIDRequest struct {
	AppointmentID string `json:"appointmentId"`
}

// envelope is the shape shared by every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type doctorsResponse struct {
	envelope
	Doctors []Doctor `json:"doctors"`
}

type appointmentsResponse struct {
	envelope
	Appointments []Appointment `json:"appointments"`
}

type orderResponse struct {
	envelope
	Order *Order `json:"order"`
}

func (e envelope) result() envelope { return e }
