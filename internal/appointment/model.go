package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Provider roles. Only provider-capable roles own bookable slots, but
// any staff role may create appointments on a provider's behalf.
const (
	RoleAdmin        = "admin"
	RoleProvider     = "provider"
	RoleReceptionist = "receptionist"
)

type Provider struct {
	ID        uuid.UUID
	Name      string
	Role      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one booked slot: a provider, a patient and an exact
// start timestamp with minute precision.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	ProviderID      uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Notes           string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DefaultDurationMinutes applies when the caller does not choose one.
const DefaultDurationMinutes = 30

// Summary is an appointment enriched with display names resolved at
// query time. Nothing here is stored denormalized.
type Summary struct {
	Appointment
	PatientName       string
	ProviderName      string
	ProviderSpecialty *string
}
