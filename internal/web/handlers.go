package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/appctx"
	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/booking"
	"github.com/hackgods/doctor-booking-web/internal/events"
	"github.com/hackgods/doctor-booking-web/internal/payment"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

const eventTimeout = 5 * time.Second

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	toasts := s.takeFlash(w, r)

	docs, err := s.dir.Doctors(r.Context())
	if err != nil {
		LoggerFrom(r.Context()).Error().Err(err).Msg("loading doctors failed")
		toasts = append(toasts, Toast{Kind: "error", Msg: backend.UserMessage(err, "Failed to load doctors")})
	}

	s.renderPage(w, r, "home", homePage{
		basePage: s.base("Doctors", token, toasts),
		Doctors:  docs,
	})
}

func (s *Server) doctorPage(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")
	token := tokenFrom(r)
	ui := &pageUI{toasts: s.takeFlash(w, r)}

	view := booking.NewBookingView(docID, s.deps(r.Context(), token, ui))
	_ = view.Load(r.Context())
	if ui.redirect != "" {
		s.redirectTo(w, r, ui, ui.redirect)
		return
	}
	applySelection(view, r.URL.Query())

	title := "Book appointment"
	if view.Doctor != nil {
		title = view.Doctor.Name
	}
	s.renderPage(w, r, "doctor", newDoctorPage(s.base(title, token, ui.toasts), view))
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}

	docID := chi.URLParam(r, "docId")
	ctx := r.Context()
	token := tokenFrom(r)
	ui := &pageUI{}

	dateKey := slot.DateKey(r.PostForm.Get("date"))
	label := slot.NormalizeTimeLabel(r.PostForm.Get("time"))

	view := booking.NewBookingView(docID, s.deps(ctx, token, ui))

	// login and time selection are checked before anything is fetched
	if token == "" || label == "" {
		_ = view.Book(ctx)
		s.redirectTo(w, r, ui, orDefault(ui.redirect, selectionURL(docID, dateKey, "")))
		return
	}

	_ = view.Load(ctx)
	if ui.redirect != "" {
		s.redirectTo(w, r, ui, ui.redirect)
		return
	}
	if view.Doctor == nil {
		// load failed and was already reported
		s.redirectTo(w, r, ui, selectionURL(docID, dateKey, label))
		return
	}
	if !view.SelectDate(dateKey) {
		LoggerFrom(ctx).Warn().Str("doc_id", docID).Str("slot_date", string(dateKey)).Msg("posted day no longer has free slots")
		ui.Warn("Selected slot is no longer available")
		s.redirectTo(w, r, ui, doctorURL(docID))
		return
	}
	view.SelectTime(string(label))

	if err := view.Book(ctx); err == nil {
		events.Log(ctx, s.recorder, *LoggerFrom(ctx), "", events.EventAppointmentBooked, map[string]any{
			"doc_id":    docID,
			"slot_date": dateKey,
			"slot_time": label,
		})
	}

	target := ui.redirect
	if target == "" {
		// keep the selection so the user can retry
		target = selectionURL(docID, dateKey, label)
	}
	s.redirectTo(w, r, ui, target)
}

func (s *Server) cancelFromDoctor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}

	docID := chi.URLParam(r, "docId")
	appointmentID := r.PostForm.Get("appointmentId")
	if appointmentID == "" {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointmentId is required")
		return
	}

	ctx := r.Context()
	ui := &pageUI{}
	view := booking.NewBookingView(docID, s.deps(ctx, tokenFrom(r), ui))

	if err := view.Cancel(ctx, appointmentID); err == nil {
		s.recordCancel(ctx, appointmentID, docID)
	}

	target := ui.redirect
	if target == "" {
		target = doctorURL(docID)
	}
	s.redirectTo(w, r, ui, target)
}

func (s *Server) myAppointments(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	ui := &pageUI{toasts: s.takeFlash(w, r)}

	view := booking.NewAppointmentListView(s.deps(r.Context(), token, ui))
	_ = view.Load(r.Context())

	s.renderPage(w, r, "appointments", appointmentsPage{
		basePage: s.base("My appointments", token, ui.toasts),
		Cards:    view.Cards(),
	})
}

func (s *Server) cancelFromList(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "id")
	ctx := r.Context()
	ui := &pageUI{}

	view := booking.NewAppointmentListView(s.deps(ctx, tokenFrom(r), ui))
	if err := view.Cancel(ctx, appointmentID); err == nil {
		s.recordCancel(ctx, appointmentID, "")
	}
	s.redirectTo(w, r, ui, orDefault(ui.redirect, booking.RouteMyAppointments))
}

func (s *Server) pay(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "id")
	ctx := r.Context()
	token := tokenFrom(r)
	ui := &pageUI{}

	view := booking.NewAppointmentListView(s.deps(ctx, token, ui))
	order, err := view.Pay(ctx, appointmentID)
	if err != nil {
		s.redirectTo(w, r, ui, orDefault(ui.redirect, booking.RouteMyAppointments))
		return
	}

	events.Log(ctx, s.recorder, *LoggerFrom(ctx), appointmentID, events.EventPaymentOrderCreated, map[string]any{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})

	s.renderPage(w, r, "checkout", checkoutPage{
		basePage:      s.base("Payment", token, ui.toasts),
		Key:           s.razorpayKey,
		Order:         *order,
		AppointmentID: appointmentID,
	})
}

// paymentComplete receives the checkout widget's result. Settlement happens
// elsewhere; here the result is only routed to whoever opened the checkout.
func (s *Server) paymentComplete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}

	res := payment.Result{
		OrderID:   r.PostForm.Get("razorpay_order_id"),
		PaymentID: r.PostForm.Get("razorpay_payment_id"),
		Signature: r.PostForm.Get("razorpay_signature"),
	}

	ui := &pageUI{}
	switch err := s.checkout.Complete(r.Context(), res); {
	case errors.Is(err, payment.ErrUnknownOrder):
		LoggerFrom(r.Context()).Warn().Str("order_id", res.OrderID).Msg("completion for unknown payment order")
		ui.Error("Payment session expired")
	case err != nil:
		LoggerFrom(r.Context()).Error().Err(err).Msg("payment completion failed")
		ui.Error("Payment failed")
	default:
		ui.Success("Payment completed")
	}
	s.redirectTo(w, r, ui, booking.RouteMyAppointments)
}

func (s *Server) slots(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docId")

	doc, err := s.dir.Find(r.Context(), docID)
	if err != nil {
		handleSlotsError(w, err)
		return
	}

	resp := SlotsResponse{DocID: doc.ID, Days: []DayResponse{}}
	for _, day := range slot.Plan(s.now(), doc.SlotsBooked) {
		resp.Days = append(resp.Days, DayResponse{
			Date:    day.Key(),
			Weekday: day.Weekday(),
			Slots:   day,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleSlotsError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, appctx.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, "backend_rejected", apiErr.Message)
	case errors.Is(err, backend.ErrTransport):
		writeError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	s.renderPage(w, r, "login", loginPage{
		basePage: s.base("Login", token, s.takeFlash(w, r)),
	})
}

// login stores a token issued by the backend's own login flow.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse form")
		return
	}

	ui := &pageUI{}
	token := strings.TrimSpace(r.PostForm.Get("token"))
	if token == "" {
		ui.Warn("Please paste your session token")
		s.redirectTo(w, r, ui, booking.RouteLogin)
		return
	}

	s.setToken(w, token)
	s.redirectTo(w, r, ui, booking.RouteHome)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.clearToken(w)
	s.redirectTo(w, r, &pageUI{}, booking.RouteHome)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := s.pages.render(w, http.StatusOK, name, data); err != nil {
		LoggerFrom(r.Context()).Error().Err(err).Str("page", name).Msg("render failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func (s *Server) recordCancel(ctx context.Context, appointmentID, docID string) {
	payload := map[string]any{}
	if docID != "" {
		payload["doc_id"] = docID
	}
	events.Log(ctx, s.recorder, *LoggerFrom(ctx), appointmentID, events.EventAppointmentCancelled, payload)
}

// recordPayment runs from the checkout callback, after the request that
// opened the checkout is gone.
func (s *Server) recordPayment(appointmentID string, order backend.Order, res payment.Result, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	events.Log(ctx, s.recorder, logger, appointmentID, events.EventPaymentCompleted, map[string]any{
		"order_id":   order.ID,
		"payment_id": res.PaymentID,
		"amount":     order.Amount,
	})
}

// applySelection reads date and time from a query string. Unknown dates are
// ignored.
func applySelection(view *booking.BookingView, values url.Values) {
	if d := values.Get("date"); d != "" {
		view.SelectDate(slot.DateKey(d))
	}
	if t := values.Get("time"); t != "" {
		view.SelectTime(t)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
