// Package booking holds the state and actions of the two patient screens:
// the doctor page with its slot picker, and the user's appointment list.
// Rendering and transport live elsewhere; results reach the user through a
// Notifier and a Navigator.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/hackgods/doctor-booking-web/internal/backend"
)

// Routes the screens navigate to.
const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteMyAppointments = "/my-appointments"
)

// DefaultSettleDelay is the pause after a cancellation before refetching, so
// the backend has applied it.
const DefaultSettleDelay = 500 * time.Millisecond

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoSlotSelected = errors.New("no time slot selected")
	ErrNoDoctor       = errors.New("doctor not loaded")
)

// API is the backend surface the screens call.
type API interface {
	MyAppointments(ctx context.Context, token string) ([]backend.Appointment, error)
	BookAppointment(ctx context.Context, token string, req backend.BookRequest) (string, error)
	CancelAppointment(ctx context.Context, token, appointmentID string) (string, error)
	CreatePaymentOrder(ctx context.Context, token, appointmentID string) (*backend.Order, error)
}

// Doctors is the shared doctor directory.
type Doctors interface {
	Doctors(ctx context.Context) ([]backend.Doctor, error)
	RefreshDoctors(ctx context.Context) error
}

// Notifier shows short-lived messages to the user.
type Notifier interface {
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
