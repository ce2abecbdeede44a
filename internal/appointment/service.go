package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlasclinic/clinic-admin/internal/holiday"
	"github.com/atlasclinic/clinic-admin/internal/patient"
	redisclient "github.com/atlasclinic/clinic-admin/internal/redis"
)

var (
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("unknown appointment status")
)

// ForbiddenDateError rejects a booking on a weekend or holiday. Reason
// carries the holiday name, or "weekend", so the caller can tell the
// user why the day is closed.
type ForbiddenDateError struct {
	Day    holiday.Day
	Reason string
}

func (e *ForbiddenDateError) Error() string {
	return fmt.Sprintf("no appointments on %04d-%02d-%02d: %s", e.Day.Year, e.Day.Month, e.Day.Day, e.Reason)
}

// PatientDirectory is the slice of the patient service the booking
// flow needs: existence and display-name resolution.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	locker   redisclient.Locker
	log      zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		locker:   locker,
		log:      log,
	}
}

// checkDate applies the forbidden-date policy to the calendar day of
// start. Out-of-coverage years for the lunar table are allowed through
// (absence of coverage is "no known holiday"), with a warning so stale
// tables show up in the logs.
func (s *Service) checkDate(start time.Time) error {
	day := holiday.DayOf(start)

	if !holiday.CoveredYear(day.Year) {
		minYear, maxYear := holiday.Coverage()
		s.log.Warn().
			Int("year", day.Year).
			Int("coverage_min", minYear).
			Int("coverage_max", maxYear).
			Msg("booking date outside lunar holiday table coverage")
	}

	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return &ForbiddenDateError{Day: day, Reason: "weekend"}
	}
	if name, ok := holiday.Name(day); ok {
		return &ForbiddenDateError{Day: day, Reason: name}
	}
	return nil
}

// Create books a slot for a patient with the given provider. The
// provider comes from the authenticated caller and is passed in
// explicitly. The slot check and insert run inside a per-slot Redis
// lock; the Postgres uniqueness constraint on (provider, start time)
// remains the final authority if two instances race anyway.
func (s *Service) Create(ctx context.Context, providerID, patientID uuid.UUID, start time.Time, notes string) (*Summary, error) {
	if err := s.checkDate(start); err != nil {
		return nil, err
	}

	pat, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	prov, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	// Minute precision: seconds in the request are not meaningful for
	// slot identity.
	start = start.Truncate(time.Minute)

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, providerID, start, func(lockCtx context.Context) error {
		existing, err := s.repo.FindByProviderAndStart(lockCtx, providerID, start)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		appt, err := s.repo.Create(lockCtx, &Appointment{
			PatientID:       patientID,
			ProviderID:      providerID,
			StartTime:       start,
			DurationMinutes: DefaultDurationMinutes,
			Notes:           notes,
			Status:          StatusScheduled,
		})
		if err != nil {
			return err
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("provider_id", providerID.String()).
		Time("start_time", start).
		Msg("appointment created")

	return &Summary{
		Appointment:       *created,
		PatientName:       pat.Name,
		ProviderName:      prov.Name,
		ProviderSpecialty: prov.Specialty,
	}, nil
}

// List returns every appointment ordered by start time, with patient
// and provider names resolved at query time.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return summaries, nil
}

// UpdateStatus moves an appointment through its lifecycle:
// scheduled -> in_progress -> completed, or scheduled -> cancelled.
// The store-side compare-and-set keeps a concurrent transition from
// being applied twice.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !ValidTransition(appt.Status, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The row either vanished or changed status since we read
			// it; the transition we validated no longer applies.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	return updated, nil
}

// Delete removes an appointment unconditionally, whatever its status.
// Deletion is not a lifecycle transition and succeeds even when the
// appointment is already gone.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// RefreshPatientMarkers recomputes every patient's denormalized
// last/next appointment fields. Called by the reminder worker.
func (s *Service) RefreshPatientMarkers(ctx context.Context) error {
	start := time.Now()
	if err := s.repo.RefreshPatientMarkers(ctx, start); err != nil {
		return fmt.Errorf("refresh patient markers: %w", err)
	}
	s.log.Debug().Dur("took", time.Since(start)).Msg("patient appointment markers refreshed")
	return nil
}
