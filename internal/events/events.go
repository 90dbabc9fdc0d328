package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventPaymentOrderCreated  = "PAYMENT_ORDER_CREATED"
	EventPaymentCompleted     = "PAYMENT_COMPLETED"
)

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID string
	Payload       []byte
	CreatedAt     time.Time
}

// Recorder persists user actions that changed backend state.
type Recorder interface {
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Log builds an event from a payload map and hands it to rec. Failures are
// logged and otherwise ignored: the action itself already succeeded.
func Log(ctx context.Context, rec Recorder, logger zerolog.Logger, appointmentID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := rec.InsertEvent(ctx, ev); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID).
			Msg("failed to insert event log")
	}
}

// LogRecorder writes events to the application log only.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) InsertEvent(_ context.Context, ev EventLog) error {
	r.logger.Info().
		Str("event_type", ev.EventType).
		Str("appointment_id", ev.AppointmentID).
		RawJSON("payload", payloadOrEmpty(ev.Payload)).
		Msg("event")
	return nil
}

func payloadOrEmpty(p []byte) []byte {
	if len(p) == 0 {
		return []byte("{}")
	}
	return p
}
