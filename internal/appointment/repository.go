package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound    = errors.New("provider not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned both by the pre-check and by the
	// store's uniqueness constraint on (provider, start time). The
	// constraint is the authority; the pre-check only gives a nicer
	// fast path.
	ErrSlotTaken = errors.New("provider already has an appointment at this time")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByProviderAndStart looks for an appointment at exactly the
	// given start time. ErrAppointmentNotFound means the slot is free.
	FindByProviderAndStart(ctx context.Context, providerID uuid.UUID, start time.Time) (*Appointment, error)

	// Create inserts a scheduled appointment. A lost race against the
	// uniqueness constraint comes back as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateStatus performs a compare-and-set transition. No row
	// matches when the appointment is gone or its status is no longer
	// `from`; either way it returns ErrAppointmentNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// List returns every appointment ordered by start time ascending,
	// joined with patient and provider display fields.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes an appointment regardless of status. Deleting an
	// absent appointment is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// RefreshPatientMarkers recomputes every patient's denormalized
	// last/next appointment timestamps. Run by the reminder worker,
	// never inline with creation.
	RefreshPatientMarkers(ctx context.Context, now time.Time) error
}
