/*
handlers.go - HTTP API handlers for the time-clock engine

PURPOSE:
  Exposes users, point registration and worked-hours reports via REST.
  Handles HTTP request/response and JSON, and delegates to timesheet.Service.

ENDPOINTS:
  Users:
    GET    /api/users                       List users
    POST   /api/users                       Create user
    GET    /api/users/{id}                  Get user
    PUT    /api/users/{id}/schedule         Change schedule (and 12x36 anchor)

  Points:
    POST   /api/users/{id}/points           Register "now" (latitude/longitude required)
    POST   /api/users/{id}/points/manual    Register at an explicit timestamp
    GET    /api/users/{id}/points           Points in ?start_date&end_date

  Reports:
    GET    /api/users/{id}/report           JSON report for ?start_date&end_date
    GET    /api/users/{id}/report/pdf       Same report as PDF
    GET    /api/users/{id}/report/xlsx      Same report as XLSX
    GET    /api/users/{id}/summary          Today's summary

  Schedules:
    GET    /api/schedules                   Active expected-hours table

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call timesheet.Service
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  - 400: invalid range, unknown schedule, malformed timestamp, bad location
  - 404: user not found
  - 409: idempotency key owned by another user
  - 503: registration lock timeout (safe to retry)
  - 500: everything else

Both registration endpoints accept an optional Idempotency-Key header; a
retry with the same key returns the point created by the first call.

Manual timestamps are ISO-8601: with an offset ("Z", "-03:00" or "-0300"),
naive date-time ("2024-01-15T08:00:00", "2024-01-15 08:00") read in the
calendar timezone, or a bare date ("2024-01-15") meaning local midnight.
Report periods are limited to report.max_days days (400 beyond that).

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/export"
	"github.com/warp/timeclock-engine/factory"
	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

const idempotencyHeader = "Idempotency-Key"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears all users and points. Used by scenario loading.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *timesheet.Service
	Store   Resetter
	Logger  *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

func NewHandler(svc *timesheet.Service, store Resetter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service: svc,
		Store:   store,
		Logger:  logger.Named("api"),
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "first_name and email are required", nil)
		return
	}
	anchor, err := optionalDate(req.ShiftAnchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift_anchor format (use YYYY-MM-DD)", err)
		return
	}

	user, err := h.Service.CreateUser(r.Context(), timesheet.CreateUserInput{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		ScheduleCode: generic.ScheduleCode(req.Schedule),
		ShiftAnchor:  anchor,
	})
	if err != nil {
		h.writeServiceError(w, r, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(*user))
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	anchor, err := optionalDate(req.ShiftAnchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift_anchor format (use YYYY-MM-DD)", err)
		return
	}

	user, err := h.Service.UpdateSchedule(r.Context(), id, generic.ScheduleCode(req.Schedule), anchor)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// POINT HANDLERS
// =============================================================================

// RegisterPoint registers the user's next point at the current time.
func (h *Handler) RegisterPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req RegisterPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required", nil)
		return
	}

	h.register(w, r, generic.RegisterInput{
		UserID:         id,
		Location:       &generic.GeoLocation{Latitude: *req.Latitude, Longitude: *req.Longitude},
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
}

// RegisterManualPoint registers the user's next point at req.Timestamp.
func (h *Handler) RegisterManualPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req ManualPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Timestamp) == "" {
		writeError(w, http.StatusBadRequest, "timestamp is required", nil)
		return
	}
	at, err := h.Service.Calendar.ParseTimestamp(req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timestamp (use ISO 8601)", err)
		return
	}

	h.register(w, r, generic.RegisterInput{
		UserID:         id,
		At:             &at,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, in generic.RegisterInput) {
	point, err := h.Service.RegisterPoint(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to register point", err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterPointResponse{
		Detail:   fmt.Sprintf("Point registered: %s", point.Kind),
		PointDTO: toPointDTO(point, h.Service.Calendar),
	})
}

func (h *Handler) ListPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	period, ok := periodParams(w, r)
	if !ok {
		return
	}
	points, err := h.Service.ListPoints(r.Context(), id, period)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list points", err)
		return
	}
	writeJSON(w, http.StatusOK, toPointDTOs(points, h.Service.Calendar))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report, h.Service.Calendar))
}

func (h *Handler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, report, h.Service.Calendar.Location); err != nil {
		h.writeServiceError(w, r, "Failed to render PDF", err)
		return
	}
	writeAttachment(w, "application/pdf", export.Filename(report, "pdf"), buf.Bytes())
}

func (h *Handler) GetReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report, h.Service.Calendar.Location); err != nil {
		h.writeServiceError(w, r, "Failed to render XLSX", err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.Filename(report, "xlsx"), buf.Bytes())
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*timesheet.Report, bool) {
	id, ok := userIDParam(w, r)
	if !ok {
		return nil, false
	}
	period, ok := periodParams(w, r)
	if !ok {
		return nil, false
	}
	report, err := h.Service.Report(r.Context(), id, period)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build report", err)
		return nil, false
	}
	return report, true
}

// GetSummary reports today in the calendar timezone.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	report, err := h.Service.DailySummary(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(report, h.Service.Calendar))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	defs := h.Service.Resolver.Definitions()
	dtos := make([]factory.ScheduleJSON, len(defs))
	for i, d := range defs {
		dtos[i] = factory.ToJSON(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	case generic.IsRetryable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("kind", generic.ErrorKind(err)),
			zap.Error(err))
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, status, message, err)
}

// userIDParam rejects IDs that are not UUIDs with 404, as no user can have one.
func userIDParam(w http.ResponseWriter, r *http.Request) (generic.UserID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found", fmt.Errorf("invalid id %q", raw))
		return "", false
	}
	return generic.UserID(id.String()), true
}

// periodParams reads the required start_date and end_date query parameters.
func periodParams(w http.ResponseWriter, r *http.Request) (generic.Period, bool) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return generic.Period{}, false
	}
	period, err := generic.ParsePeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM-DD, start <= end)", err)
		return generic.Period{}, false
	}
	return period, true
}

func optionalDate(s string) (*generic.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
