package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	pathDoctorList      = "/api/doctor/list"
	pathMyAppointments  = "/api/user/my-appointments"
	pathBookAppointment = "/api/user/book-appointment"
	pathCancel          = "/api/user/cancel-appointment"
	pathPaymentRazorpay = "/api/user/payment-razorpay"

	// tokenHeader carries the session token issued by the auth service.
	tokenHeader = "token"

	maxBodyBytes = 4 << 20
)

var (
	// ErrTransport marks failures where no usable backend answer arrived:
	// network errors, timeouts and undecodable bodies.
	ErrTransport = errors.New("backend request failed")
)

// APIError is a failure reported by the backend itself, either as
// success:false or as an error status carrying a message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.Status)
	}
	return e.Message
}

// UserMessage returns the text to show for err: the backend's own message
// when there is one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type enveloped interface {
	result() envelope
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDoctors fetches the public doctor directory.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var resp doctorsResponse
	if err := c.do(ctx, http.MethodGet, pathDoctorList, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Doctors, nil
}

// MyAppointments lists the appointments of the token's user in backend order.
func (c *Client) MyAppointments(ctx context.Context, token string) ([]Appointment, error) {
	var resp appointmentsResponse
	if err := c.do(ctx, http.MethodGet, pathMyAppointments, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Appointments, nil
}

// BookAppointment asks the backend to reserve a slot and returns its message.
func (c *Client) BookAppointment(ctx context.Context, token string, req BookRequest) (string, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPost, pathBookAppointment, token, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) (string, error) {
	var resp envelope
	body := appointmentIDRequest{AppointmentID: appointmentID}
	if err := c.do(ctx, http.MethodPost, pathCancel, token, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CreatePaymentOrder requests a Razorpay order for an appointment.
func (c *Client) CreatePaymentOrder(ctx context.Context, token, appointmentID string) (*Order, error) {
	var resp orderResponse
	body := appointmentIDRequest{AppointmentID: appointmentID}
	if err := c.do(ctx, http.MethodPost, pathPaymentRazorpay, token, body, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("%w: payment response without order", ErrTransport)
	}
	return resp.Order, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathDoctorList, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in any, out enveloped) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrTransport, path, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: %s %s returned status %d", ErrTransport, method, path, resp.StatusCode)
		}
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, path, err)
	}

	env := out.result()
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		if !env.Success && env.Message == "" && resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: %s %s returned status %d", ErrTransport, method, path, resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	return nil
}
