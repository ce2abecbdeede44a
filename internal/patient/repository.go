package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrRecordNumberTaken = errors.New("record number already assigned")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// CreateWithRecordNumber allocates the next dossier number and
	// inserts the patient in one transaction. ErrRecordNumberTaken
	// signals a lost allocation race; the caller decides whether to
	// retry.
	CreateWithRecordNumber(ctx context.Context, in NewPatientInput) (*Patient, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]Patient, error)
	Update(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddDocument(ctx context.Context, patientID uuid.UUID, doc Document) error
	RemoveDocument(ctx context.Context, patientID uuid.UUID, url string) error
}
