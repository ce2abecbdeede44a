package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlasclinic/clinic-admin/internal/patient"
)

// PatientService is the slice of the patient service the handlers use.
type PatientService interface {
	Create(ctx context.Context, in patient.NewPatientInput) (*patient.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	List(ctx context.Context) ([]patient.Patient, error)
	Update(ctx context.Context, id uuid.UUID, in patient.UpdatePatientInput) (*patient.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AttachDocument(ctx context.Context, patientID uuid.UUID, doc patient.Document) error
	RemoveDocument(ctx context.Context, patientID uuid.UUID, url string) error
}

func createPatientHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := patient.NewPatientInput{
			Name:     req.Name,
			Phone:    req.Phone,
			Address:  req.Address,
			Email:    req.Email,
			PhotoURL: req.PhotoURL,
		}
		if req.Birthday != nil {
			birthday, err := parseDate(*req.Birthday)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthday", "birthday must be YYYY-MM-DD")
				return
			}
			in.Birthday = &birthday
		}

		created, err := svc.Create(r.Context(), in)
		if err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusCreated, patientResponse(created))
	}
}

func listPatientsHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.List(r.Context())
		if err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			resp = append(resp, patientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusOK, patientResponse(p))
	}
}

func updatePatientHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req UpdatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := patient.UpdatePatientInput{
			Name:     req.Name,
			Phone:    req.Phone,
			Address:  req.Address,
			Email:    req.Email,
			PhotoURL: req.PhotoURL,
		}
		if req.Birthday != nil {
			birthday, err := parseDate(*req.Birthday)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthday", "birthday must be YYYY-MM-DD")
				return
			}
			in.Birthday = &birthday
		}

		updated, err := svc.Update(r.Context(), id, in)
		if err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusOK, patientResponse(updated))
	}
}

func deletePatientHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
	}
}

func addDocumentHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req AddDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doc := patient.Document{URL: req.URL, Name: req.Name, UploadedAt: time.Now()}
		if err := svc.AttachDocument(r.Context(), id, doc); err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusCreated, DocumentResponse{
			URL:        doc.URL,
			Name:       doc.Name,
			UploadedAt: doc.UploadedAt,
		})
	}
}

func removeDocumentHandler(svc PatientService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req RemoveDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.RemoveDocument(r.Context(), id, req.URL); err != nil {
			handlePatientError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "document removed"})
	}
}

func handlePatientError(w http.ResponseWriter, r *http.Request, err error, log zerolog.Logger) {
	var missing *patient.MissingFieldError

	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, "missing_field", missing.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, patient.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "document_not_found", err.Error())
	case errors.Is(err, patient.ErrAllocationConflict):
		writeError(w, http.StatusConflict, "allocation_conflict", "could not allocate a record number, please retry")
	default:
		log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("patient request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
