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

	"github.com/atlasclinic/clinic-admin/internal/appointment"
	"github.com/atlasclinic/clinic-admin/internal/patient"
)

// AppointmentService is the slice of the appointment service the
// handlers use.
type AppointmentService interface {
	Create(ctx context.Context, providerID, patientID uuid.UUID, start time.Time, notes string) (*appointment.Summary, error)
	List(ctx context.Context) ([]appointment.Summary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func createAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.PatientID == "" {
			writeError(w, http.StatusBadRequest, "missing_field", "patient_id is required")
			return
		}
		if req.StartTime == "" {
			writeError(w, http.StatusBadRequest, "missing_field", "start_time is required")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		start, err := parseStartTime(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339 or YYYY-MM-DDTHH:MM")
			return
		}

		created, err := svc.Create(r.Context(), identity.ProviderID, patientID, start, req.Notes)
		if err != nil {
			handleAppointmentError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusCreated, summaryResponse(*created))
	}
}

func listAppointmentsHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.List(r.Context())
		if err != nil {
			handleAppointmentError(w, r, err, log)
			return
		}

		resp := make([]AppointmentResponse, 0, len(summaries))
		for _, s := range summaries {
			resp = append(resp, summaryResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateAppointmentStatusHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Status == "" {
			writeError(w, http.StatusBadRequest, "missing_field", "status is required")
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			handleAppointmentError(w, r, err, log)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{
			ID:              updated.ID,
			PatientID:       updated.PatientID,
			ProviderID:      updated.ProviderID,
			StartTime:       updated.StartTime,
			DurationMinutes: updated.DurationMinutes,
			Notes:           updated.Notes,
			Status:          string(updated.Status),
		})
	}
}

func deleteAppointmentHandler(svc AppointmentService, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleAppointmentError(w, r, err, log)
			return
		}

		// Deletion is unconditional and does not distinguish "already
		// absent" from "removed".
		writeJSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
	}
}

func handleAppointmentError(w http.ResponseWriter, r *http.Request, err error, log zerolog.Logger) {
	var forbidden *appointment.ForbiddenDateError
	var missing *patient.MissingFieldError

	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, "missing_field", missing.Error())
	case errors.As(err, &forbidden):
		writeError(w, http.StatusUnprocessableEntity, "forbidden_date", forbidden.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		// Persistence failures are logged, not leaked.
		log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("appointment request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
