package mockapi

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
)

func TestSeed(t *testing.T) {
	s := New(zerolog.Nop())
	ids := s.Seed(gofakeit.New(7), 5)
	if len(ids) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(ids))
	}

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	docs, err := backend.NewClient(srv.URL).ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("expected 5 doctors, got %d", len(docs))
	}

	known := make(map[string]bool)
	for _, sp := range specialities {
		known[sp] = true
	}
	for i, d := range docs {
		if d.ID != ids[i] {
			t.Errorf("expected insertion order, got %s at %d", d.ID, i)
		}
		if d.Name == "" || d.Fees <= 0 || !d.Available {
			t.Errorf("incomplete doctor %+v", d)
		}
		if !known[d.Speciality] {
			t.Errorf("unexpected speciality %q", d.Speciality)
		}
	}
}

func TestCancelReleasesSlotAndGuardsOwnership(t *testing.T) {
	s := New(zerolog.Nop())
	s.AddDoctor(backend.Doctor{ID: "doc1", Name: "Dr. Richard James", Available: true, Fees: 50})
	s.AddUser("alice", "u1")
	s.AddUser("bob", "u2")

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	c := backend.NewClient(srv.URL)
	ctx := context.Background()

	req := backend.BookRequest{DocID: "doc1", SlotDate: "10_7_2025", SlotTime: "10:30 AM"}
	if _, err := c.BookAppointment(ctx, "alice", req); err != nil {
		t.Fatalf("book: %v", err)
	}
	list, _ := c.MyAppointments(ctx, "alice")
	id := list[0].ID

	if _, err := c.CancelAppointment(ctx, "bob", id); backend.UserMessage(err, "") != msgUnauthorized {
		t.Fatalf("expected %q, got %v", msgUnauthorized, err)
	}
	if _, err := c.BookAppointment(ctx, "bob", req); backend.UserMessage(err, "") != msgSlotTaken {
		t.Fatalf("expected %q, got %v", msgSlotTaken, err)
	}

	if _, err := c.CancelAppointment(ctx, "alice", id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := c.CreatePaymentOrder(ctx, "alice", id); backend.UserMessage(err, "") != msgApptCancelled {
		t.Fatalf("expected %q, got %v", msgApptCancelled, err)
	}

	if _, err := c.BookAppointment(ctx, "bob", req); err != nil {
		t.Fatalf("released slot should be bookable: %v", err)
	}
}

func TestUnavailableDoctor(t *testing.T) {
	s := New(zerolog.Nop())
	s.AddDoctor(backend.Doctor{ID: "doc1", Available: false})
	s.AddUser("alice", "u1")

	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	_, err := backend.NewClient(srv.URL).BookAppointment(context.Background(), "alice",
		backend.BookRequest{DocID: "doc1", SlotDate: "10_7_2025", SlotTime: "10:30 AM"})
	if backend.UserMessage(err, "") != msgDoctorOff {
		t.Fatalf("expected %q, got %v", msgDoctorOff, err)
	}
}
