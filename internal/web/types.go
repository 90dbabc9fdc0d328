package web

import (
	"encoding/json"
	"net/http"

	"github.com/hackgods/doctor-booking-web/internal/slot"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DayResponse is one day-bucket of the slots endpoint.
type DayResponse struct {
	Date    slot.DateKey `json:"date"`
	Weekday string       `json:"weekday"`
	Slots   []slot.Slot  `json:"slots"`
}

type SlotsResponse struct {
	DocID string        `json:"docId"`
	Days  []DayResponse `json:"days"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
