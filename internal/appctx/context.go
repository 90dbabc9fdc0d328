// Package appctx holds the state shared by the booking screens: the cached
// doctor directory, the user's token and the backend location.
package appctx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	redisclient "github.com/hackgods/doctor-booking-web/internal/redis"
)

const (
	refreshLockKey    = "doctors:refresh"
	refreshRetryDelay = 50 * time.Millisecond
	refreshMaxWait    = 3 * time.Second
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
)

// DoctorLister fetches the doctor directory from the backend.
type DoctorLister interface {
	ListDoctors(ctx context.Context) ([]backend.Doctor, error)
}

// Directory is the process-wide doctor cache. Only RefreshDoctors writes to
// it, one refresh at a time.
type Directory struct {
	api    DoctorLister
	store  DoctorStore
	locker redisclient.Locker
	logger zerolog.Logger
}

func NewDirectory(api DoctorLister, store DoctorStore, locker redisclient.Locker, logger zerolog.Logger) *Directory {
	return &Directory{
		api:    api,
		store:  store,
		locker: locker,
		logger: logger,
	}
}

// Doctors returns the cached collection, loading it on a miss.
func (d *Directory) Doctors(ctx context.Context) ([]backend.Doctor, error) {
	docs, ok, err := d.store.Load(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("doctor cache read failed, refetching")
	}
	if ok {
		return docs, nil
	}

	if err := d.RefreshDoctors(ctx); err != nil {
		return nil, err
	}

	docs, _, err = d.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	return docs, nil
}

// Find resolves one doctor from the cached collection.
func (d *Directory) Find(ctx context.Context, docID string) (*backend.Doctor, error) {
	docs, err := d.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == docID {
			return &docs[i], nil
		}
	}
	return nil, ErrDoctorNotFound
}

// RefreshDoctors refetches the directory and replaces the cache. A refresh
// already running elsewhere is waited for, then this one runs too so the
// caller sees data fetched after its own action.
func (d *Directory) RefreshDoctors(ctx context.Context) error {
	deadline := time.Now().Add(refreshMaxWait)

	for {
		err := d.locker.WithLock(ctx, refreshLockKey, d.refresh)
		if !errors.Is(err, redisclient.ErrLockNotAcquired) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("refresh doctors: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(refreshRetryDelay):
		}
	}
}

func (d *Directory) refresh(ctx context.Context) error {
	docs, err := d.api.ListDoctors(ctx)
	if err != nil {
		return fmt.Errorf("list doctors: %w", err)
	}
	if err := d.store.Save(ctx, docs); err != nil {
		return fmt.Errorf("save doctors: %w", err)
	}
	d.logger.Debug().Int("doctors", len(docs)).Msg("doctor cache refreshed")
	return nil
}

// Context is what one screen sees of the application state.
type Context struct {
	*Directory

	Token          string
	BackendURL     string
	CurrencySymbol string
}

// LoggedIn reports whether a session token is present.
func (c *Context) LoggedIn() bool {
	return c.Token != ""
}
