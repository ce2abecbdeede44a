package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasclinic/clinic-admin/internal/appointment"
	"github.com/atlasclinic/clinic-admin/internal/patient"
)

const testSecret = "test-secret"

// fakeAppointments implements AppointmentService with canned behavior
// per test. A nil function means "not expected to be called".
type fakeAppointments struct {
	createFn       func(ctx context.Context, providerID, patientID uuid.UUID, start time.Time, notes string) (*appointment.Summary, error)
	listFn         func(ctx context.Context) ([]appointment.Summary, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeAppointments) Create(ctx context.Context, providerID, patientID uuid.UUID, start time.Time, notes string) (*appointment.Summary, error) {
	return f.createFn(ctx, providerID, patientID, start, notes)
}

func (f *fakeAppointments) List(ctx context.Context) ([]appointment.Summary, error) {
	return f.listFn(ctx)
}

func (f *fakeAppointments) UpdateStatus(ctx context.Context, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error) {
	return f.updateStatusFn(ctx, id, to)
}

func (f *fakeAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

// fakePatients keeps an in-memory patient map, enough to drive the
// handlers end to end.
type fakePatients struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
	nextNum  int64
}

func newFakePatients() *fakePatients {
	return &fakePatients{patients: make(map[uuid.UUID]*patient.Patient), nextNum: 1000}
}

func (f *fakePatients) Create(ctx context.Context, in patient.NewPatientInput) (*patient.Patient, error) {
	if in.Name == "" {
		return nil, &patient.MissingFieldError{Field: "name"}
	}
	if in.Phone == "" {
		return nil, &patient.MissingFieldError{Field: "phone"}
	}
	if in.Address == "" {
		return nil, &patient.MissingFieldError{Field: "address"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextNum++
	p := &patient.Patient{
		ID:           uuid.New(),
		RecordNumber: f.nextNum,
		Name:         in.Name,
		Phone:        in.Phone,
		Address:      in.Address,
		Email:        in.Email,
		Birthday:     in.Birthday,
		PhotoURL:     in.PhotoURL,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.patients[p.ID] = p
	return p, nil
}

func (f *fakePatients) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (f *fakePatients) List(ctx context.Context) ([]patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]patient.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePatients) Update(ctx context.Context, id uuid.UUID, in patient.UpdatePatientInput) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	return p, nil
}

func (f *fakePatients) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.patients, id)
	return nil
}

func (f *fakePatients) AttachDocument(ctx context.Context, patientID uuid.UUID, doc patient.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[patientID]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.Documents = append(p.Documents, doc)
	return nil
}

func (f *fakePatients) RemoveDocument(ctx context.Context, patientID uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[patientID]
	if !ok {
		return patient.ErrPatientNotFound
	}
	for i, d := range p.Documents {
		if d.URL == url {
			p.Documents = append(p.Documents[:i], p.Documents[i+1:]...)
			return nil
		}
	}
	return patient.ErrDocumentNotFound
}

func testRouter(t *testing.T, appts AppointmentService, patients PatientService) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		Appointments: appts,
		Patients:     patients,
		JWTSecret:    testSecret,
		Env:          "test",
		Version:      "test",
		Logger:       zerolog.Nop(),
	})
}

func signToken(t *testing.T, providerID uuid.UUID, role, secret string) string {
	t.Helper()
	claims := authClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   providerID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingToken(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())

	rec := doJSON(t, h, http.MethodGet, "/appointments/", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleProvider, "not-the-secret")

	rec := doJSON(t, h, http.MethodGet, "/appointments/", token, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsNonStaffRole(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())
	token := signToken(t, uuid.New(), "patient", testSecret)

	rec := doJSON(t, h, http.MethodGet, "/appointments/", token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthIsPublic(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAppointmentUsesCallerAsProvider(t *testing.T) {
	providerID := uuid.New()
	patientID := uuid.New()
	var gotProvider uuid.UUID

	appts := &fakeAppointments{
		createFn: func(ctx context.Context, provID, patID uuid.UUID, start time.Time, notes string) (*appointment.Summary, error) {
			gotProvider = provID
			return &appointment.Summary{
				Appointment: appointment.Appointment{
					ID:              uuid.New(),
					PatientID:       patID,
					ProviderID:      provID,
					StartTime:       start,
					DurationMinutes: appointment.DefaultDurationMinutes,
					Status:          appointment.StatusScheduled,
				},
				PatientName:  "Amina Alaoui",
				ProviderName: "Dr. Bennani",
			}, nil
		},
	}
	h := testRouter(t, appts, newFakePatients())
	token := signToken(t, providerID, appointment.RoleProvider, testSecret)

	rec := doJSON(t, h, http.MethodPost, "/appointments/", token, map[string]string{
		"patient_id": patientID.String(),
		"start_time": "2025-12-04T09:30",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, providerID, gotProvider)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, "Amina Alaoui", resp.PatientName)
	assert.Equal(t, appointment.DefaultDurationMinutes, resp.DurationMinutes)
}

func TestCreateAppointmentValidation(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleReceptionist, testSecret)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing patient", map[string]string{"start_time": "2025-12-04T09:30"}, "missing_field"},
		{"missing start", map[string]string{"patient_id": uuid.NewString()}, "missing_field"},
		{"bad patient id", map[string]string{"patient_id": "nope", "start_time": "2025-12-04T09:30"}, "invalid_patient_id"},
		{"bad start time", map[string]string{"patient_id": uuid.NewString(), "start_time": "tomorrow"}, "invalid_start_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/appointments/", token, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestAppointmentErrorMapping(t *testing.T) {
	token := signToken(t, uuid.New(), appointment.RoleProvider, testSecret)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"forbidden date", &appointment.ForbiddenDateError{Reason: "weekend"}, http.StatusUnprocessableEntity, "forbidden_date"},
		{"slot taken", appointment.ErrSlotTaken, http.StatusConflict, "slot_taken"},
		{"slot being booked", appointment.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{"unknown patient", patient.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
		{"unknown provider", appointment.ErrProviderNotFound, http.StatusNotFound, "provider_not_found"},
		{"storage failure", fmt.Errorf("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appts := &fakeAppointments{
				createFn: func(context.Context, uuid.UUID, uuid.UUID, time.Time, string) (*appointment.Summary, error) {
					return nil, tt.err
				},
			}
			h := testRouter(t, appts, newFakePatients())

			rec := doJSON(t, h, http.MethodPost, "/appointments/", token, map[string]string{
				"patient_id": uuid.NewString(),
				"start_time": "2025-12-04T09:30",
			})

			require.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestInternalErrorsLeakNothing(t *testing.T) {
	appts := &fakeAppointments{
		createFn: func(context.Context, uuid.UUID, uuid.UUID, time.Time, string) (*appointment.Summary, error) {
			return nil, fmt.Errorf("pgx: connection refused host=db-internal-01")
		},
	}
	h := testRouter(t, appts, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleAdmin, testSecret)

	rec := doJSON(t, h, http.MethodPost, "/appointments/", token, map[string]string{
		"patient_id": uuid.NewString(),
		"start_time": "2025-12-04T09:30",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db-internal-01")
}

func TestUpdateAppointmentStatus(t *testing.T) {
	id := uuid.New()
	appts := &fakeAppointments{
		updateStatusFn: func(ctx context.Context, gotID uuid.UUID, to appointment.Status) (*appointment.Appointment, error) {
			assert.Equal(t, id, gotID)
			if !appointment.ValidStatus(to) {
				return nil, appointment.ErrInvalidStatus
			}
			if to != appointment.StatusInProgress {
				return nil, appointment.ErrInvalidTransition
			}
			return &appointment.Appointment{ID: gotID, Status: to}, nil
		},
	}
	h := testRouter(t, appts, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleProvider, testSecret)

	rec := doJSON(t, h, http.MethodPatch, "/appointments/"+id.String()+"/status", token, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPatch, "/appointments/"+id.String()+"/status", token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/appointments/"+id.String()+"/status", token, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAppointmentAlwaysSucceeds(t *testing.T) {
	appts := &fakeAppointments{
		deleteFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	h := testRouter(t, appts, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleReceptionist, testSecret)

	rec := doJSON(t, h, http.MethodDelete, "/appointments/"+uuid.NewString(), token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPatientLifecycleOverHTTP(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleReceptionist, testSecret)

	rec := doJSON(t, h, http.MethodPost, "/patients/", token, map[string]any{
		"name":     "Amina Alaoui",
		"phone":    "0661223344",
		"address":  "12 Rue des Orangers, Rabat",
		"birthday": "1988-04-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created PatientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1001), created.RecordNumber)
	require.NotNil(t, created.Birthday)
	assert.Equal(t, "1988-04-02", *created.Birthday)

	rec = doJSON(t, h, http.MethodPost, "/patients/"+created.ID.String()+"/documents", token, map[string]string{
		"url":  "https://files.example.com/lab-results.pdf",
		"name": "lab results",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/patients/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched PatientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Len(t, fetched.Documents, 1)
	assert.Equal(t, "lab results", fetched.Documents[0].Name)

	rec = doJSON(t, h, http.MethodDelete, "/patients/"+created.ID.String()+"/documents", token, map[string]string{
		"url": "https://files.example.com/lab-results.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/patients/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/patients/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePatientValidation(t *testing.T) {
	h := testRouter(t, &fakeAppointments{}, newFakePatients())
	token := signToken(t, uuid.New(), appointment.RoleAdmin, testSecret)

	rec := doJSON(t, h, http.MethodPost, "/patients/", token, map[string]string{
		"name": "No Phone", "address": "somewhere",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_field", resp.Error)

	rec = doJSON(t, h, http.MethodPost, "/patients/", token, map[string]string{
		"name": "Bad Birthday", "phone": "0600000000", "address": "somewhere", "birthday": "02/04/1988",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
