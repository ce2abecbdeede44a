package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record. RecordNumber is the dossier
// number: assigned once at creation, unique, strictly increasing in
// allocation order, and never reused or changed afterwards.
type Patient struct {
	ID              uuid.UUID
	RecordNumber    int64
	Name            string
	Phone           string
	Address         string
	Email           *string
	Birthday        *time.Time
	PhotoURL        *string
	LastAppointment *time.Time
	NextAppointment *time.Time
	Documents       []Document
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Document is a reference to an uploaded file attached to a patient's
// dossier. Storage lives elsewhere; we only keep the URL it hands back.
type Document struct {
	URL        string
	Name       string
	UploadedAt time.Time
}

// NewPatientInput carries the caller-supplied fields for creation.
// The record number is never part of the input.
type NewPatientInput struct {
	Name     string
	Phone    string
	Address  string
	Email    *string
	Birthday *time.Time
	PhotoURL *string
}

// UpdatePatientInput carries optional field updates. Nil fields are
// left untouched.
type UpdatePatientInput struct {
	Name     *string
	Phone    *string
	Address  *string
	Email    *string
	Birthday *time.Time
	PhotoURL *string
}
