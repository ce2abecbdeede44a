package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Role,
		&p.Specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Notes,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

const appointmentColumns = `
	id, patient_id, provider_id, start_time, duration_minutes, notes, status, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, role, specialty, created_at, updated_at
		FROM providers
		WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindByProviderAndStart(ctx context.Context, providerID uuid.UUID, start time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND start_time = $2
	`, providerID, start)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, provider_id, start_time, duration_minutes, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.ProviderID, a.StartTime, a.DurationMinutes, a.Notes, a.Status)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.provider_id, a.start_time, a.duration_minutes,
		       a.notes, a.status, a.created_at, a.updated_at,
		       p.name, pr.name, pr.specialty
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN providers pr ON pr.id = a.provider_id
		ORDER BY a.start_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Summary
	for rows.Next() {
		var s Summary
		err := rows.Scan(
			&s.ID,
			&s.PatientID,
			&s.ProviderID,
			&s.StartTime,
			&s.DurationMinutes,
			&s.Notes,
			&s.Status,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.PatientName,
			&s.ProviderName,
			&s.ProviderSpecialty,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Unconditional: no status guard, and deleting a row that is
	// already gone succeeds quietly.
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

func (r *PgRepository) RefreshPatientMarkers(ctx context.Context, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE patients p
		SET last_appointment = sub.last_appt,
		    next_appointment = sub.next_appt,
		    updated_at       = now()
		FROM (
			SELECT patient_id,
			       MAX(start_time) FILTER (WHERE start_time <= $1) AS last_appt,
			       MIN(start_time) FILTER (WHERE start_time > $1 AND status = 'scheduled') AS next_appt
			FROM appointments
			WHERE status <> 'cancelled'
			GROUP BY patient_id
		) sub
		WHERE p.id = sub.patient_id
		  AND (p.last_appointment IS DISTINCT FROM sub.last_appt
		    OR p.next_appointment IS DISTINCT FROM sub.next_appt)
	`, now)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE patients p
		SET last_appointment = NULL,
		    next_appointment = NULL,
		    updated_at       = now()
		WHERE (p.last_appointment IS NOT NULL OR p.next_appointment IS NOT NULL)
		  AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.patient_id = p.id AND a.status <> 'cancelled'
		  )
	`)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
