// Package web serves the booking screens as server-rendered pages.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/appctx"
	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/booking"
	"github.com/hackgods/doctor-booking-web/internal/events"
	"github.com/hackgods/doctor-booking-web/internal/payment"
)

// BackendAPI is the remote booking API as the pages use it.
type BackendAPI interface {
	booking.API
	Pinger
}

type RouterConfig struct {
	API       BackendAPI
	Directory *appctx.Directory
	Checkout  *payment.Registry
	Recorder  events.Recorder
	Logger    zerolog.Logger

	// Optional readiness probes.
	Postgres Pinger
	Redis    Pinger

	BackendURL     string
	CurrencySymbol string
	RazorpayKeyID  string
	CookieSecure   bool
	SettleDelay    time.Duration
	Env            string
	Version        string

	// Now overrides the clock for slot planning.
	Now func() time.Time
}

// Server holds what the page handlers share.
type Server struct {
	api          BackendAPI
	dir          *appctx.Directory
	checkout     *payment.Registry
	recorder     events.Recorder
	logger       zerolog.Logger
	pages        *pages
	backendURL   string
	currency     string
	razorpayKey  string
	cookieSecure bool
	settleDelay  time.Duration
	now          func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	s := &Server{
		api:          cfg.API,
		dir:          cfg.Directory,
		checkout:     cfg.Checkout,
		recorder:     cfg.Recorder,
		logger:       cfg.Logger,
		pages:        mustParsePages(),
		backendURL:   cfg.BackendURL,
		currency:     cfg.CurrencySymbol,
		razorpayKey:  cfg.RazorpayKeyID,
		cookieSecure: cfg.CookieSecure,
		settleDelay:  cfg.SettleDelay,
		now:          cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recorder == nil {
		s.recorder = events.NewLogRecorder(cfg.Logger)
	}
	if s.checkout == nil {
		s.checkout = payment.NewRegistry(0)
	}
	// orders opened on another replica carry the appointment id as receipt
	s.checkout.OnRemoteComplete(func(order backend.Order, res payment.Result) {
		s.recordPayment(order.Receipt, order, res, s.logger)
	})

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoverMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.API, cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/", s.home)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Route("/appointment/{docId}", func(r chi.Router) {
		r.Get("/", s.doctorPage)
		r.Post("/book", s.book)
		r.Post("/cancel", s.cancelFromDoctor)
	})

	r.Route("/my-appointments", func(r chi.Router) {
		r.Get("/", s.myAppointments)
		r.Post("/{id}/cancel", s.cancelFromList)
		r.Post("/{id}/pay", s.pay)
	})
	r.Post("/payments/complete", s.paymentComplete)

	r.Get("/api/doctors/{docId}/slots", s.slots)

	return r
}

// deps wires the booking screens to this request.
func (s *Server) deps(ctx context.Context, token string, ui *pageUI) booking.Deps {
	logger := *LoggerFrom(ctx)
	return booking.Deps{
		Token:     token,
		API:       s.api,
		Doctors:   s.dir,
		Notifier:  ui,
		Navigator: ui,
		Checkout:  s.checkout,
		Logger:    logger,
		OnPaymentComplete: func(appointmentID string, order backend.Order, res payment.Result) {
			s.recordPayment(appointmentID, order, res, logger)
		},
		Now:         s.now,
		SettleDelay: s.settleDelay,
	}
}

// appContext is the shared state one page sees.
func (s *Server) appContext(token string) *appctx.Context {
	return &appctx.Context{
		Directory:      s.dir,
		Token:          token,
		BackendURL:     s.backendURL,
		CurrencySymbol: s.currency,
	}
}
