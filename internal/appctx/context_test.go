package appctx

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	redisclient "github.com/hackgods/doctor-booking-web/internal/redis"
)

type fakeLister struct {
	calls int
	docs  []backend.Doctor
	err   error
}

func (f *fakeLister) ListDoctors(context.Context) ([]backend.Doctor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type mapCache struct {
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string, v any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *mapCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func newDirectory(l DoctorLister, store DoctorStore) *Directory {
	return NewDirectory(l, store, redisclient.NewLocalLocker(), zerolog.Nop())
}

func TestDirectory_LoadsOnMissOnly(t *testing.T) {
	lister := &fakeLister{docs: []backend.Doctor{{ID: "doc1", Name: "Dr. A"}}}
	dir := newDirectory(lister, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		docs, err := dir.Doctors(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 doctor, got %d", len(docs))
		}
	}
	if lister.calls != 1 {
		t.Fatalf("expected a single backend fetch, got %d", lister.calls)
	}
}

func TestDirectory_RefreshReplacesCache(t *testing.T) {
	lister := &fakeLister{docs: []backend.Doctor{{ID: "doc1"}}}
	dir := newDirectory(lister, NewMemoryStore())
	ctx := context.Background()

	if _, err := dir.Doctors(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lister.docs = []backend.Doctor{{ID: "doc1"}, {ID: "doc2"}}
	if err := dir.RefreshDoctors(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	doc, err := dir.Find(ctx, "doc2")
	if err != nil {
		t.Fatalf("expected refreshed doctor, got %v", err)
	}
	if doc.ID != "doc2" {
		t.Fatalf("unexpected doctor %+v", doc)
	}
}

func TestDirectory_FindMissing(t *testing.T) {
	dir := newDirectory(&fakeLister{docs: []backend.Doctor{{ID: "doc1"}}}, NewMemoryStore())

	if _, err := dir.Find(context.Background(), "nope"); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestDirectory_BackendErrorLeavesCache(t *testing.T) {
	lister := &fakeLister{docs: []backend.Doctor{{ID: "doc1"}}}
	dir := newDirectory(lister, NewMemoryStore())
	ctx := context.Background()

	if _, err := dir.Doctors(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lister.err = backend.ErrTransport
	if err := dir.RefreshDoctors(ctx); !errors.Is(err, backend.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	if _, err := dir.Find(ctx, "doc1"); err != nil {
		t.Fatalf("expected previous cache to survive, got %v", err)
	}
}

func TestCacheStore_RoundTrip(t *testing.T) {
	store := NewCacheStore(&mapCache{data: map[string][]byte{}})
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := []backend.Doctor{{ID: "doc1", Name: "Dr. A", Fees: 50}}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0].Name != "Dr. A" || out[0].Fees != 50 {
		t.Fatalf("unexpected doctors %+v", out)
	}
}

func TestContext_LoggedIn(t *testing.T) {
	c := &Context{}
	if c.LoggedIn() {
		t.Fatal("expected anonymous context")
	}
	c.Token = "tok"
	if !c.LoggedIn() {
		t.Fatal("expected logged in context")
	}
}
