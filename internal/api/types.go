package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlasclinic/clinic-admin/internal/appointment"
	"github.com/atlasclinic/clinic-admin/internal/patient"
)

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	StartTime string `json:"start_time"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID                uuid.UUID `json:"id"`
	PatientID         uuid.UUID `json:"patient_id"`
	PatientName       string    `json:"patient_name,omitempty"`
	ProviderID        uuid.UUID `json:"provider_id"`
	ProviderName      string    `json:"provider_name,omitempty"`
	ProviderSpecialty *string   `json:"provider_specialty,omitempty"`
	StartTime         time.Time `json:"start_time"`
	DurationMinutes   int       `json:"duration_minutes"`
	Notes             string    `json:"notes,omitempty"`
	Status            string    `json:"status"`
}

func summaryResponse(s appointment.Summary) AppointmentResponse {
	return AppointmentResponse{
		ID:                s.ID,
		PatientID:         s.PatientID,
		PatientName:       s.PatientName,
		ProviderID:        s.ProviderID,
		ProviderName:      s.ProviderName,
		ProviderSpecialty: s.ProviderSpecialty,
		StartTime:         s.StartTime,
		DurationMinutes:   s.DurationMinutes,
		Notes:             s.Notes,
		Status:            string(s.Status),
	}
}

type CreatePatientRequest struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Address  string  `json:"address"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"` // YYYY-MM-DD
	PhotoURL *string `json:"photo_url,omitempty"`
}

type UpdatePatientRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"` // YYYY-MM-DD
	PhotoURL *string `json:"photo_url,omitempty"`
}

type DocumentResponse struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type AddDocumentRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type RemoveDocumentRequest struct {
	URL string `json:"url"`
}

type PatientResponse struct {
	ID              uuid.UUID          `json:"id"`
	RecordNumber    int64              `json:"record_number"`
	Name            string             `json:"name"`
	Phone           string             `json:"phone"`
	Address         string             `json:"address"`
	Email           *string            `json:"email,omitempty"`
	Birthday        *string            `json:"birthday,omitempty"`
	PhotoURL        *string            `json:"photo_url,omitempty"`
	LastAppointment *time.Time         `json:"last_appointment,omitempty"`
	NextAppointment *time.Time         `json:"next_appointment,omitempty"`
	Documents       []DocumentResponse `json:"documents"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func patientResponse(p *patient.Patient) PatientResponse {
	resp := PatientResponse{
		ID:              p.ID,
		RecordNumber:    p.RecordNumber,
		Name:            p.Name,
		Phone:           p.Phone,
		Address:         p.Address,
		Email:           p.Email,
		PhotoURL:        p.PhotoURL,
		LastAppointment: p.LastAppointment,
		NextAppointment: p.NextAppointment,
		Documents:       []DocumentResponse{},
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Birthday != nil {
		b := p.Birthday.Format(dateLayout)
		resp.Birthday = &b
	}
	for _, d := range p.Documents {
		resp.Documents = append(resp.Documents, DocumentResponse{
			URL:        d.URL,
			Name:       d.Name,
			UploadedAt: d.UploadedAt,
		})
	}
	return resp
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
