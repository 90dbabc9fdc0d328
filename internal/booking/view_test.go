package booking

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/payment"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

// ---------- fakes ----------

type recorder struct {
	calls []string
}

func (r *recorder) add(c string) { r.calls = append(r.calls, c) }

type fakeAPI struct {
	rec          *recorder
	appointments []backend.Appointment
	bookReq      *backend.BookRequest
	bookErr      error
	cancelErr    error
	listErr      error
	order        *backend.Order
	orderErr     error
}

func (f *fakeAPI) MyAppointments(context.Context, string) ([]backend.Appointment, error) {
	f.rec.add("appointments")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.appointments, nil
}

func (f *fakeAPI) BookAppointment(_ context.Context, _ string, req backend.BookRequest) (string, error) {
	f.rec.add("book")
	f.bookReq = &req
	if f.bookErr != nil {
		return "", f.bookErr
	}
	return "Appointment Booked", nil
}

func (f *fakeAPI) CancelAppointment(context.Context, string, string) (string, error) {
	f.rec.add("cancel")
	if f.cancelErr != nil {
		return "", f.cancelErr
	}
	return "Appointment Cancelled", nil
}

func (f *fakeAPI) CreatePaymentOrder(context.Context, string, string) (*backend.Order, error) {
	f.rec.add("order")
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

type fakeDoctors struct {
	rec        *recorder
	docs       []backend.Doctor
	refreshErr error
}

func (f *fakeDoctors) Doctors(context.Context) ([]backend.Doctor, error) {
	f.rec.add("doctor-info")
	return f.docs, nil
}

func (f *fakeDoctors) RefreshDoctors(context.Context) error {
	f.rec.add("doctor-list")
	return f.refreshErr
}

type toast struct {
	kind string
	msg  string
}

type fakeUI struct {
	toasts []toast
	routes []string
}

func (u *fakeUI) Success(msg string) { u.toasts = append(u.toasts, toast{"success", msg}) }
func (u *fakeUI) Warn(msg string) { u.toasts = append(u.toasts, toast{"warn", msg}) }
func (u *fakeUI) Error(msg string) { u.toasts = append(u.toasts, toast{"error", msg}) }
func (u *fakeUI) Navigate(r string) { u.routes = append(u.routes, r) }

type fakeCheckout struct {
	opened   []backend.Order
	callback func(payment.Result)
}

func (c *fakeCheckout) Open(_ context.Context, o backend.Order, onComplete func(payment.Result)) error {
	c.opened = append(c.opened, o)
	c.callback = onComplete
	return nil
}

type fixture struct {
	rec      *recorder
	api      *fakeAPI
	doctors  *fakeDoctors
	ui       *fakeUI
	checkout *fakeCheckout
	slept    []time.Duration
	deps     Deps
}

var fixedNow = time.Date(2025, time.July, 9, 9, 0, 0, 0, time.Local)

func newFixture(token string) *fixture {
	rec := &recorder{}
	f := &fixture{
		rec: rec,
		api: &fakeAPI{rec: rec},
		doctors: &fakeDoctors{rec: rec, docs: []backend.Doctor{
			{ID: "doc1", Name: "Dr. Richard James", Speciality: "General physician", SlotsBooked: slot.Bookings{"9_7_2025": {"06:00 PM"}}},
			{ID: "doc2", Name: "Dr. Emily Larson", Speciality: "Gynecologist"},
			{ID: "doc3", Name: "Dr. Sarah Patel", Speciality: "General physician"},
		}},
		ui:       &fakeUI{},
		checkout: &fakeCheckout{},
	}
	f.deps = Deps{
		Token:     token,
		API:       f.api,
		Doctors:   f.doctors,
		Notifier:  f.ui,
		Navigator: f.ui,
		Checkout:  f.checkout,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
		Sleep: func(_ context.Context, d time.Duration) error {
			rec.add("sleep")
			f.slept = append(f.slept, d)
			return nil
		},
	}
	return f
}

func (f *fixture) reset() {
	f.rec.calls = nil
	f.ui.toasts = nil
	f.ui.routes = nil
}

// ---------- BookingView ----------

func TestBookingView_LoadPlansSlots(t *testing.T) {
	f := newFixture("tok")
	f.api.appointments = []backend.Appointment{
		{ID: "a1", DocID: "doc1"},
		{ID: "a2", DocID: "doc2"},
	}

	v := NewBookingView("doc1", f.deps)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Doctor == nil || v.Doctor.Name != "Dr. Richard James" {
		t.Fatalf("unexpected doctor %+v", v.Doctor)
	}
	if len(v.Days) != slot.PlanDays {
		t.Fatalf("expected %d days, got %d", slot.PlanDays, len(v.Days))
	}
	if v.Days[0].Contains("06:00 PM") {
		t.Fatal("booked slot must not be offered")
	}
	if v.DayIndex != 0 || v.Time != "" {
		t.Fatalf("expected default selection, got day=%d time=%q", v.DayIndex, v.Time)
	}
	if len(v.UserAppointments) != 1 || v.UserAppointments[0].ID != "a1" {
		t.Fatalf("expected only this doctor's appointments, got %+v", v.UserAppointments)
	}
	if len(v.Related) != 1 || v.Related[0].ID != "doc3" {
		t.Fatalf("unexpected related doctors %+v", v.Related)
	}
}

func TestBookingView_UnknownDoctorRedirectsHome(t *testing.T) {
	f := newFixture("tok")

	v := NewBookingView("missing", f.deps)
	err := v.Load(context.Background())
	if !errors.Is(err, ErrNoDoctor) {
		t.Fatalf("expected ErrNoDoctor, got %v", err)
	}
	if !reflect.DeepEqual(f.ui.routes, []string{RouteHome}) {
		t.Fatalf("expected redirect home, got %v", f.ui.routes)
	}
	if len(f.ui.toasts) != 0 {
		t.Fatalf("not found must not toast, got %+v", f.ui.toasts)
	}
}

func TestBookingView_SelectDate(t *testing.T) {
	f := newFixture("tok")
	v := NewBookingView("doc1", f.deps)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !v.SelectDate("11_7_2025") || v.DayIndex != 2 {
		t.Fatalf("expected 11 Jul at index 2, got %d", v.DayIndex)
	}
	if v.SelectDate("8_7_2025") {
		t.Fatal("a day outside the plan must not be selectable")
	}
	if v.DayIndex != 2 {
		t.Fatalf("failed selection must keep the current day, got %d", v.DayIndex)
	}
}

func TestBookingView_SelectTimeNormalizes(t *testing.T) {
	f := newFixture("tok")
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())

	if v.CanBook() {
		t.Fatal("book must be disabled without a selected time")
	}
	v.SelectTime("5:30 pm")
	if v.Time != "05:30 PM" {
		t.Fatalf("expected normalized label, got %q", v.Time)
	}
	v.SelectDay(3)
	if v.DayIndex != 3 {
		t.Fatalf("expected day 3, got %d", v.DayIndex)
	}
	v.SelectDay(42)
	if v.DayIndex != 3 {
		t.Fatalf("out of range day must be ignored, got %d", v.DayIndex)
	}
	if !v.CanBook() {
		t.Fatal("book must be enabled once a time is selected")
	}
}

func TestBookingView_BookWithoutTimeIsNoop(t *testing.T) {
	f := newFixture("tok")
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	f.reset()

	err := v.Book(context.Background())
	if !errors.Is(err, ErrNoSlotSelected) {
		t.Fatalf("expected ErrNoSlotSelected, got %v", err)
	}
	if len(f.rec.calls) != 0 {
		t.Fatalf("expected no network calls, got %v", f.rec.calls)
	}
	if len(f.ui.toasts) != 1 || f.ui.toasts[0] != (toast{"warn", "Please select a time slot"}) {
		t.Fatalf("expected validation warning, got %+v", f.ui.toasts)
	}
}

func TestBookingView_BookWithoutTokenGoesToLogin(t *testing.T) {
	f := newFixture("")
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	v.SelectTime("10:00 AM")
	f.reset()

	err := v.Book(context.Background())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if len(f.rec.calls) != 0 {
		t.Fatalf("expected no network calls, got %v", f.rec.calls)
	}
	if !reflect.DeepEqual(f.ui.routes, []string{RouteLogin}) {
		t.Fatalf("expected login redirect, got %v", f.ui.routes)
	}
	if f.ui.toasts[0].kind != "warn" {
		t.Fatalf("expected warning, got %+v", f.ui.toasts)
	}
}

func TestBookingView_BookSuccess(t *testing.T) {
	f := newFixture("tok")
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	v.SelectDay(1)
	v.SelectTime("10:30 am")
	f.reset()

	if err := v.Book(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := backend.BookRequest{DocID: "doc1", SlotDate: "10_7_2025", SlotTime: "10:30 AM"}
	if *f.api.bookReq != want {
		t.Fatalf("unexpected request %+v", *f.api.bookReq)
	}

	expectedCalls := []string{"book", "doctor-list", "doctor-info", "appointments"}
	if !reflect.DeepEqual(f.rec.calls, expectedCalls) {
		t.Fatalf("expected calls %v, got %v", expectedCalls, f.rec.calls)
	}
	if v.DayIndex != 0 || v.Time != "" {
		t.Fatalf("expected selection reset, got day=%d time=%q", v.DayIndex, v.Time)
	}
	if !reflect.DeepEqual(f.ui.routes, []string{RouteMyAppointments}) {
		t.Fatalf("expected navigation to my appointments, got %v", f.ui.routes)
	}
	if f.ui.toasts[0] != (toast{"success", "Appointment Booked"}) {
		t.Fatalf("unexpected toasts %+v", f.ui.toasts)
	}
}

func TestBookingView_BookFailureKeepsState(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "backend message", err: &backend.APIError{Message: "Slot not available"}, expected: "Slot not available"},
		{name: "transport", err: backend.ErrTransport, expected: "Failed to book appointment"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture("tok")
			f.api.bookErr = c.err
			v := NewBookingView("doc1", f.deps)
			_ = v.Load(context.Background())
			v.SelectDay(2)
			v.SelectTime("11:00 AM")
			f.reset()

			if err := v.Book(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if !reflect.DeepEqual(f.rec.calls, []string{"book"}) {
				t.Fatalf("expected no refresh after failure, got %v", f.rec.calls)
			}
			if v.DayIndex != 2 || v.Time != "11:00 AM" {
				t.Fatalf("selection must be kept, got day=%d time=%q", v.DayIndex, v.Time)
			}
			if len(f.ui.routes) != 0 {
				t.Fatalf("expected no navigation, got %v", f.ui.routes)
			}
			if f.ui.toasts[0] != (toast{"error", c.expected}) {
				t.Fatalf("unexpected toast %+v", f.ui.toasts[0])
			}
		})
	}
}

func TestBookingView_CancelRefreshOrder(t *testing.T) {
	f := newFixture("tok")
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	v.SelectTime("10:00 AM")
	f.reset()

	if err := v.Cancel(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"cancel", "sleep", "doctor-list", "doctor-info", "appointments"}
	if !reflect.DeepEqual(f.rec.calls, expected) {
		t.Fatalf("expected calls %v, got %v", expected, f.rec.calls)
	}
	if len(f.slept) != 1 || f.slept[0] != DefaultSettleDelay {
		t.Fatalf("expected one settle delay of %s, got %v", DefaultSettleDelay, f.slept)
	}
	if v.Time != "" {
		t.Fatal("expected selection reset")
	}
	if len(f.ui.routes) != 0 {
		t.Fatalf("cancel must not navigate, got %v", f.ui.routes)
	}
}

func TestBookingView_CancelFailure(t *testing.T) {
	f := newFixture("tok")
	f.api.cancelErr = &backend.APIError{Message: "Unauthorized action"}
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	f.reset()

	if err := v.Cancel(context.Background(), "a1"); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(f.rec.calls, []string{"cancel"}) {
		t.Fatalf("expected no refresh, got %v", f.rec.calls)
	}
	if f.ui.toasts[0] != (toast{"error", "Unauthorized action"}) {
		t.Fatalf("unexpected toast %+v", f.ui.toasts[0])
	}
}

func TestBookingView_RefreshFailureContinuesSequence(t *testing.T) {
	f := newFixture("tok")
	f.doctors.refreshErr = backend.ErrTransport
	v := NewBookingView("doc1", f.deps)
	_ = v.Load(context.Background())
	v.SelectTime("10:00 AM")
	f.reset()

	if err := v.Book(context.Background()); err != nil {
		t.Fatalf("booking itself succeeded, got %v", err)
	}
	expected := []string{"book", "doctor-list", "doctor-info", "appointments"}
	if !reflect.DeepEqual(f.rec.calls, expected) {
		t.Fatalf("expected calls %v, got %v", expected, f.rec.calls)
	}
}
