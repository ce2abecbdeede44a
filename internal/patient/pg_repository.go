package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool

	// recordNumberBase seeds the dossier counter; the first patient
	// ever created gets base+1.
	recordNumberBase int64
}

func NewPgRepository(pool *pgxpool.Pool, recordNumberBase int64) *PgRepository {
	return &PgRepository{pool: pool, recordNumberBase: recordNumberBase}
}

const patientColumns = `
	id, record_number, name, phone, address, email, birthday, photo_url,
	last_appointment, next_appointment, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.RecordNumber,
		&p.Name,
		&p.Phone,
		&p.Address,
		&p.Email,
		&p.Birthday,
		&p.PhotoURL,
		&p.LastAppointment,
		&p.NextAppointment,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

// nextRecordNumber bumps the dossier counter inside tx and returns the
// allocated number. The first allocation seeds the counter from the
// configured base or the highest pre-existing dossier, whichever is
// larger; every later allocation is a single atomic increment.
func (r *PgRepository) nextRecordNumber(ctx context.Context, tx pgx.Tx) (int64, error) {
	var next int64
	row := tx.QueryRow(ctx, `
		INSERT INTO record_number_seq (id, next_number)
		VALUES (1, GREATEST($1, (SELECT COALESCE(MAX(record_number), 0) FROM patients)) + 1)
		ON CONFLICT (id)
		DO UPDATE SET next_number = record_number_seq.next_number + 1
		RETURNING next_number
	`, r.recordNumberBase)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *PgRepository) CreateWithRecordNumber(ctx context.Context, in NewPatientInput) (*Patient, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	recordNumber, err := r.nextRecordNumber(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("allocate record number: %w", err)
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO patients (id, record_number, name, phone, address, email, birthday, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+patientColumns+`
	`, id, recordNumber, in.Name, in.Phone, in.Address, in.Email, in.Birthday, in.PhotoURL)

	p, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrRecordNumberTaken
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.Documents = []Document{}
	return p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)

	p, err := scanPatient(row)
	if err != nil {
		return nil, err
	}

	docs, err := r.documentsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Documents = docs

	return p, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY record_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		p.Documents = []Document{}
		index[p.ID] = len(result)
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docRows, err := r.pool.Query(ctx, `
		SELECT patient_id, url, name, uploaded_at
		FROM patient_documents
		ORDER BY uploaded_at
	`)
	if err != nil {
		return nil, err
	}
	defer docRows.Close()

	for docRows.Next() {
		var patientID uuid.UUID
		var doc Document
		if err := docRows.Scan(&patientID, &doc.URL, &doc.Name, &doc.UploadedAt); err != nil {
			return nil, err
		}
		if i, ok := index[patientID]; ok {
			result[i].Documents = append(result[i].Documents, doc)
		}
	}
	if err := docRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Update never touches record_number: the dossier number is immutable
// once assigned.
func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET name       = COALESCE($2, name),
		    phone      = COALESCE($3, phone),
		    address    = COALESCE($4, address),
		    email      = COALESCE($5, email),
		    birthday   = COALESCE($6, birthday),
		    photo_url  = COALESCE($7, photo_url),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, id, in.Name, in.Phone, in.Address, in.Email, in.Birthday, in.PhotoURL)

	p, err := scanPatient(row)
	if err != nil {
		return nil, err
	}

	docs, err := r.documentsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Documents = docs

	return p, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) AddDocument(ctx context.Context, patientID uuid.UUID, doc Document) error {
	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO patient_documents (patient_id, url, name, uploaded_at)
		SELECT id, $2, $3, $4 FROM patients WHERE id = $1
	`, patientID, doc.URL, doc.Name, uploadedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) RemoveDocument(ctx context.Context, patientID uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM patient_documents
		WHERE patient_id = $1 AND url = $2
	`, patientID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PgRepository) documentsFor(ctx context.Context, patientID uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT url, name, uploaded_at
		FROM patient_documents
		WHERE patient_id = $1
		ORDER BY uploaded_at
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.URL, &d.Name, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}
