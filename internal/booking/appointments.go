package booking

import (
	"context"
	"fmt"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/payment"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

const (
	placeholderDoctor     = "Unknown Doctor"
	placeholderSpeciality = "Speciality Not Available"
	placeholderNA         = "N/A"
)

var months = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatDateKey renders "9_7_2025" as "9 Jul 2025". Keys that do not parse
// are returned unchanged.
func FormatDateKey(k slot.DateKey) string {
	day, month, year, err := slot.ParseDateKey(k)
	if err != nil {
		return string(k)
	}
	return fmt.Sprintf("%d %s %d", day, months[month], year)
}

// Card is one rendered row of the appointment list.
type Card struct {
	ID           string
	DoctorName   string
	Speciality   string
	Image        string
	AddressLine1 string
	AddressLine2 string
	Date         string
	Time         string
	Cancelled    bool
	Paid         bool
	Completed    bool
}

// AppointmentListView is the "my appointments" screen.
type AppointmentListView struct {
	// Newest first.
	Appointments []backend.Appointment

	deps Deps
}

func NewAppointmentListView(deps Deps) *AppointmentListView {
	deps.withDefaults()
	return &AppointmentListView{deps: deps}
}

// Load fetches the user's appointments. Without a token it does nothing.
func (v *AppointmentListView) Load(ctx context.Context) error {
	if v.deps.Token == "" {
		return nil
	}

	list, err := v.deps.API.MyAppointments(ctx, v.deps.Token)
	if err != nil {
		v.deps.Logger.Error().Err(err).Msg("fetching appointments failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to fetch appointments"))
		return err
	}

	reversed := make([]backend.Appointment, len(list))
	for i, a := range list {
		reversed[len(list)-1-i] = a
	}
	v.Appointments = reversed
	return nil
}

// Cancel cancels an appointment, then reloads the list and the shared
// doctor directory. Unlike the doctor page there is no settle delay: the
// list is refetched right away.
func (v *AppointmentListView) Cancel(ctx context.Context, appointmentID string) error {
	if !v.requireLogin("Please login to cancel an appointment") {
		return ErrNotLoggedIn
	}

	msg, err := v.deps.API.CancelAppointment(ctx, v.deps.Token, appointmentID)
	if err != nil {
		v.deps.Logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("cancellation failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Error cancelling appointment"))
		return err
	}

	v.deps.Notifier.Success(msg)

	_ = v.Load(ctx)
	if err := v.deps.Doctors.RefreshDoctors(ctx); err != nil {
		v.deps.Logger.Error().Err(err).Msg("doctor refresh failed")
	}
	return nil
}

// Pay requests a payment order and opens the checkout widget for it. Nothing
// changes locally until the widget reports back.
func (v *AppointmentListView) Pay(ctx context.Context, appointmentID string) (*backend.Order, error) {
	if !v.requireLogin("Please login to pay for an appointment") {
		return nil, ErrNotLoggedIn
	}

	order, err := v.deps.API.CreatePaymentOrder(ctx, v.deps.Token, appointmentID)
	if err != nil {
		v.deps.Logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("payment order failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Payment failed"))
		return nil, err
	}

	logger := v.deps.Logger
	hook := v.deps.OnPaymentComplete
	placed := *order

	err = v.deps.Checkout.Open(ctx, placed, func(res payment.Result) {
		logger.Info().
			Str("appointment_id", appointmentID).
			Str("order_id", res.OrderID).
			Str("payment_id", res.PaymentID).
			Msg("payment completed")
		if hook != nil {
			hook(appointmentID, placed, res)
		}
	})
	if err != nil {
		v.deps.Logger.Error().Err(err).Str("order_id", placed.ID).Msg("opening checkout failed")
		v.deps.Notifier.Error("Payment failed")
		return nil, err
	}

	return order, nil
}

func (v *AppointmentListView) requireLogin(msg string) bool {
	if v.deps.Token != "" {
		return true
	}
	v.deps.Notifier.Warn(msg)
	v.deps.Navigator.Navigate(RouteLogin)
	return false
}

// Cards renders the list with placeholders for missing doctor data.
func (v *AppointmentListView) Cards() []Card {
	return CardsOf(v.Appointments)
}

// CardsOf renders appointments in the given order.
func CardsOf(list []backend.Appointment) []Card {
	cards := make([]Card, 0, len(list))
	for _, a := range list {
		var doc backend.DoctorSnapshot
		if a.DocData != nil {
			doc = *a.DocData
		}

		date := placeholderNA
		if a.SlotDate != "" {
			date = FormatDateKey(a.SlotDate)
		}

		cards = append(cards, Card{
			ID:           a.ID,
			DoctorName:   orDefault(doc.Name, placeholderDoctor),
			Speciality:   orDefault(doc.Speciality, placeholderSpeciality),
			Image:        doc.Image,
			AddressLine1: orDefault(doc.Address.Line1, placeholderNA),
			AddressLine2: orDefault(doc.Address.Line2, placeholderNA),
			Date:         date,
			Time:         orDefault(string(a.SlotTime), placeholderNA),
			Cancelled:    a.Cancelled,
			Paid:         a.Payment,
			Completed:    a.IsCompleted,
		})
	}
	return cards
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
