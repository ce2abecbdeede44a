package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// allocation retries are bounded: the counter is atomic, so a unique
// violation means something outside the allocator wrote a dossier
// number, and looping forever on that would hide the problem.
const maxAllocationAttempts = 3

var ErrAllocationConflict = errors.New("record number allocation conflict")

// MissingFieldError reports which required field was absent so the
// caller can correct and resubmit.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create validates required fields, allocates the next dossier number
// and persists the record. Allocation races are retried a bounded
// number of times before surfacing ErrAllocationConflict.
func (s *Service) Create(ctx context.Context, in NewPatientInput) (*Patient, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	switch {
	case in.Name == "":
		return nil, &MissingFieldError{Field: "name"}
	case in.Phone == "":
		return nil, &MissingFieldError{Field: "phone"}
	case in.Address == "":
		return nil, &MissingFieldError{Field: "address"}
	}

	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		p, err := s.repo.CreateWithRecordNumber(ctx, in)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrRecordNumberTaken) {
			return nil, fmt.Errorf("create patient: %w", err)
		}
		s.log.Warn().
			Int("attempt", attempt).
			Msg("record number collision, retrying allocation")
	}

	return nil, ErrAllocationConflict
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// Update edits caller-supplied fields. The record number is not part
// of the input type, so it can never change here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return err
		}
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// AttachDocument records a document reference handed back by the
// upload collaborator.
func (s *Service) AttachDocument(ctx context.Context, patientID uuid.UUID, doc Document) error {
	if strings.TrimSpace(doc.URL) == "" {
		return &MissingFieldError{Field: "url"}
	}
	if strings.TrimSpace(doc.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}

	if err := s.repo.AddDocument(ctx, patientID, doc); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return err
		}
		return fmt.Errorf("attach document: %w", err)
	}
	return nil
}

func (s *Service) RemoveDocument(ctx context.Context, patientID uuid.UUID, url string) error {
	if strings.TrimSpace(url) == "" {
		return &MissingFieldError{Field: "url"}
	}

	if err := s.repo.RemoveDocument(ctx, patientID, url); err != nil {
		if errors.Is(err, ErrPatientNotFound) || errors.Is(err, ErrDocumentNotFound) {
			return err
		}
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}
