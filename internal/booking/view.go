package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/payment"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

const maxRelatedDoctors = 5

// Deps are the collaborators shared by both screens. Token is empty for
// anonymous users.
type Deps struct {
	Token     string
	API       API
	Doctors   Doctors
	Notifier  Notifier
	Navigator Navigator
	Checkout  payment.Checkout
	Logger    zerolog.Logger

	// OnPaymentComplete runs after the checkout widget reports completion.
	OnPaymentComplete func(appointmentID string, order backend.Order, res payment.Result)

	Now         func() time.Time
	Sleep       Sleeper
	SettleDelay time.Duration
}

func (d *Deps) withDefaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sleep == nil {
		d.Sleep = sleepContext
	}
	if d.SettleDelay == 0 {
		d.SettleDelay = DefaultSettleDelay
	}
}

// BookingView is the doctor page: doctor details, the slot picker and the
// book/cancel actions.
type BookingView struct {
	DocID  string
	Doctor *backend.Doctor
	Days   []slot.Day

	// Selection.
	DayIndex int
	Time     slot.TimeLabel

	// The user's appointments with this doctor.
	UserAppointments []backend.Appointment
	Related          []backend.Doctor

	deps Deps
}

func NewBookingView(docID string, deps Deps) *BookingView {
	deps.withDefaults()
	return &BookingView{DocID: docID, deps: deps}
}

// Load resolves the doctor, plans the slots and fetches the user's
// appointments with the doctor. An unknown doctor sends the user home.
func (v *BookingView) Load(ctx context.Context) error {
	if err := v.resolveDoctor(ctx); err != nil {
		return err
	}
	v.resetSelection()
	return v.fetchUserAppointments(ctx)
}

// SelectedDay returns the selected day-bucket, if any.
func (v *BookingView) SelectedDay() (slot.Day, bool) {
	if v.DayIndex < 0 || v.DayIndex >= len(v.Days) {
		return nil, false
	}
	return v.Days[v.DayIndex], true
}

// SelectDay picks a day-bucket. Indexes outside the plan are ignored.
func (v *BookingView) SelectDay(i int) {
	if i < 0 || i >= len(v.Days) {
		return
	}
	v.DayIndex = i
}

// SelectDate picks the day-bucket with the given key. It reports false when
// the current plan has no such day, for example after its last free slot
// was taken.
func (v *BookingView) SelectDate(key slot.DateKey) bool {
	for i, day := range v.Days {
		if day.Key() == key {
			v.DayIndex = i
			return true
		}
	}
	return false
}

func (v *BookingView) SelectTime(label string) {
	v.Time = slot.NormalizeTimeLabel(label)
}

// CanBook reports whether the book action is enabled.
func (v *BookingView) CanBook() bool {
	return v.Time != ""
}

// Book submits the selected slot. On failure the selection is kept so the
// user can retry.
func (v *BookingView) Book(ctx context.Context) error {
	if v.deps.Token == "" {
		v.deps.Notifier.Warn("Please login to book an appointment")
		v.deps.Navigator.Navigate(RouteLogin)
		return ErrNotLoggedIn
	}
	if !v.CanBook() {
		v.deps.Notifier.Warn("Please select a time slot")
		return ErrNoSlotSelected
	}

	day, ok := v.SelectedDay()
	if !ok {
		v.deps.Notifier.Warn("Please select a time slot")
		return ErrNoSlotSelected
	}

	req := backend.BookRequest{
		DocID:    v.DocID,
		SlotDate: day.Key(),
		SlotTime: slot.NormalizeTimeLabel(string(v.Time)),
	}

	v.deps.Logger.Info().
		Str("doc_id", req.DocID).
		Str("slot_date", string(req.SlotDate)).
		Str("slot_time", string(req.SlotTime)).
		Msg("booking slot")

	msg, err := v.deps.API.BookAppointment(ctx, v.deps.Token, req)
	if err != nil {
		v.deps.Logger.Error().Err(err).Str("doc_id", req.DocID).Msg("booking failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to book appointment"))
		return err
	}

	v.deps.Notifier.Success(msg)
	v.refreshAfterChange(ctx)
	v.resetSelection()
	v.deps.Navigator.Navigate(RouteMyAppointments)
	return nil
}

// Cancel cancels one of the user's appointments and refreshes the page once
// the backend had time to apply it.
func (v *BookingView) Cancel(ctx context.Context, appointmentID string) error {
	if v.deps.Token == "" {
		v.deps.Notifier.Warn("Please login to cancel an appointment")
		v.deps.Navigator.Navigate(RouteLogin)
		return ErrNotLoggedIn
	}

	v.deps.Logger.Info().Str("appointment_id", appointmentID).Msg("cancelling appointment")

	msg, err := v.deps.API.CancelAppointment(ctx, v.deps.Token, appointmentID)
	if err != nil {
		v.deps.Logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("cancellation failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to cancel appointment"))
		return err
	}

	v.deps.Notifier.Success(msg)

	if err := v.deps.Sleep(ctx, v.deps.SettleDelay); err != nil {
		return err
	}
	v.refreshAfterChange(ctx)
	v.resetSelection()
	return nil
}

// refreshAfterChange runs doctor list, doctor info, appointment list in that
// order, each finished before the next starts. Failures are reported and do
// not stop the sequence.
func (v *BookingView) refreshAfterChange(ctx context.Context) {
	if err := v.deps.Doctors.RefreshDoctors(ctx); err != nil {
		v.deps.Logger.Error().Err(err).Msg("doctor refresh failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to refresh doctors"))
	}
	_ = v.resolveDoctor(ctx)
	_ = v.fetchUserAppointments(ctx)
}

func (v *BookingView) resolveDoctor(ctx context.Context) error {
	docs, err := v.deps.Doctors.Doctors(ctx)
	if err != nil {
		v.deps.Logger.Error().Err(err).Msg("loading doctors failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to load doctors"))
		return err
	}

	var found *backend.Doctor
	for i := range docs {
		if docs[i].ID == v.DocID {
			found = &docs[i]
			break
		}
	}
	if found == nil {
		v.deps.Logger.Warn().Str("doc_id", v.DocID).Msg("doctor not found")
		v.deps.Navigator.Navigate(RouteHome)
		return ErrNoDoctor
	}

	v.Doctor = found
	v.Days = slot.Plan(v.deps.Now(), found.SlotsBooked)
	v.Related = related(docs, found)
	return nil
}

func (v *BookingView) fetchUserAppointments(ctx context.Context) error {
	if v.deps.Token == "" {
		return nil
	}

	list, err := v.deps.API.MyAppointments(ctx, v.deps.Token)
	if err != nil {
		v.deps.Logger.Error().Err(err).Msg("fetching appointments failed")
		v.deps.Notifier.Error(backend.UserMessage(err, "Failed to fetch appointments"))
		return err
	}

	mine := make([]backend.Appointment, 0, len(list))
	for _, a := range list {
		if a.DocID == v.DocID {
			mine = append(mine, a)
		}
	}
	v.UserAppointments = mine
	return nil
}

func (v *BookingView) resetSelection() {
	v.DayIndex = 0
	v.Time = ""
}

func related(docs []backend.Doctor, doc *backend.Doctor) []backend.Doctor {
	var out []backend.Doctor
	for _, d := range docs {
		if d.ID == doc.ID || d.Speciality != doc.Speciality {
			continue
		}
		out = append(out, d)
		if len(out) == maxRelatedDoctors {
			break
		}
	}
	return out
}
