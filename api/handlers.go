/*
handlers.go - HTTP API handlers for the weekly allowance engine

PURPOSE:
  Exposes the shift lifecycle and the weekly allowance aggregates via REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  lifecycle service.

ENDPOINTS:
  Shifts:
    POST   /api/shifts                  Record a single shift
    POST   /api/shifts/batch            Record the same shift on several dates
    GET    /api/shifts/{id}             Get one shift
    PUT    /api/shifts/{id}             Update a shift
    DELETE /api/shifts/{id}             Delete a scheduled shift
    POST   /api/shifts/{id}/complete    Mark a shift as worked

  Contracts:
    POST   /api/contracts               Register a contract (with its worker)
    GET    /api/contracts/{id}          Get contract details
    GET    /api/contracts/{id}/shifts   All shifts of a contract
    GET    /api/contracts/{id}/allowances Weekly buckets with derived amounts

  Views:
    GET    /api/workplaces/{id}/shifts?from&to  Employer calendar view
    GET    /api/workers/{userID}/shifts?from&to Worker's own shifts

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Clear all data (dev only)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:   Database access (also serves as contract provider)
  - Service: Shift lifecycle manager
  - Factory: JSON to contract conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (lifecycle service)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (bad dates, negative ranges)
  - 404: Contract/shift/worker not found
  - 409: Operation illegal for the shift's current status
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/shifts"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *shifts.Service
	Factory *factory.ContractFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Service: shifts.NewService(store, store, store),
		Factory: factory.NewContractFactory(),
	}
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift records a single shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	workDate, err := time.Parse(dateLayout, req.WorkDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid work_date format (use YYYY-MM-DD)", err)
		return
	}
	start, end, ok := parseShiftTimes(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	shift, err := h.Service.Create(r.Context(), shifts.CreateRequest{
		ContractID:   wage.ContractID(req.ContractID),
		WorkDate:     workDate,
		Start:        start,
		End:          end,
		BreakMinutes: req.BreakMinutes,
		Memo:         req.Memo,
	})
	if err != nil {
		writeDomainError(w, "Failed to create shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// BatchCreateShifts records the same shift on several dates.
func (h *Handler) BatchCreateShifts(w http.ResponseWriter, r *http.Request) {
	var req BatchCreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.WorkDates) == 0 {
		writeError(w, http.StatusBadRequest, "At least one work date is required", nil)
		return
	}

	dates := make([]time.Time, 0, len(req.WorkDates))
	for _, d := range req.WorkDates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date: %s", d), err)
			return
		}
		dates = append(dates, t)
	}
	start, end, ok := parseShiftTimes(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	created, err := h.Service.BatchCreate(r.Context(), shifts.BatchCreateRequest{
		ContractID:   wage.ContractID(req.ContractID),
		WorkDates:    dates,
		Start:        start,
		End:          end,
		BreakMinutes: req.BreakMinutes,
		Memo:         req.Memo,
	})
	if err != nil {
		writeDomainError(w, "Failed to create shifts", err)
		return
	}

	writeJSON(w, http.StatusCreated, toShiftDTOs(created))
}

// GetShift returns a single shift.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := wage.ShiftID(chi.URLParam(r, "id"))

	shift, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// UpdateShift applies partial changes to a shift.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id := wage.ShiftID(chi.URLParam(r, "id"))

	var req UpdateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	update := shifts.UpdateRequest{
		BreakMinutes: req.BreakMinutes,
		Memo:         req.Memo,
	}
	if req.StartTime != nil {
		t, err := wage.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time format (use HH:MM)", err)
			return
		}
		update.Start = &t
	}
	if req.EndTime != nil {
		t, err := wage.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_time format (use HH:MM)", err)
			return
		}
		update.End = &t
	}

	shift, err := h.Service.Update(r.Context(), id, update)
	if err != nil {
		writeDomainError(w, "Failed to update shift", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// CompleteShift marks a shift as worked.
func (h *Handler) CompleteShift(w http.ResponseWriter, r *http.Request) {
	id := wage.ShiftID(chi.URLParam(r, "id"))

	shift, err := h.Service.Complete(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to complete shift", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// DeleteShift removes a scheduled shift.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := wage.ShiftID(chi.URLParam(r, "id"))

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete shift", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// CreateContract registers a contract and its worker.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, worker, err := h.Factory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract configuration", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveContract(ctx, contract); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}
	if err := h.Store.SaveWorker(ctx, worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

// GetContract returns contract details.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := wage.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Store.Contract(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}

	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// ListContractShifts returns every shift recorded against a contract.
func (h *Handler) ListContractShifts(w http.ResponseWriter, r *http.Request) {
	id := wage.ContractID(chi.URLParam(r, "id"))

	records, err := h.Service.ListByContract(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTOs(records))
}

// ListContractAllowances returns a contract's weekly buckets with their
// derived paid-leave and overtime amounts.
func (h *Handler) ListContractAllowances(w http.ResponseWriter, r *http.Request) {
	id := wage.ContractID(chi.URLParam(r, "id"))

	buckets, err := h.Service.ListAllowances(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to list allowances", err)
		return
	}

	dtos := make([]AllowanceDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toAllowanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// ListWorkplaceShifts returns the employer calendar view: shifts for every
// contract of a workplace inside ?from&to.
func (h *Handler) ListWorkplaceShifts(w http.ResponseWriter, r *http.Request) {
	id := wage.WorkplaceID(chi.URLParam(r, "id"))

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.Service.ListByWorkplace(r.Context(), id, from, to)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTOs(records))
}

// ListWorkerShifts resolves the user's worker profile and returns their
// shifts inside ?from&to.
func (h *Handler) ListWorkerShifts(w http.ResponseWriter, r *http.Request) {
	userID := wage.UserID(chi.URLParam(r, "userID"))

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.Service.ListByUser(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTOs(records))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseShiftTimes(w http.ResponseWriter, startStr, endStr string) (wage.TimeOfDay, wage.TimeOfDay, bool) {
	start, err := wage.ParseTimeOfDay(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time format (use HH:MM)", err)
		return wage.TimeOfDay{}, wage.TimeOfDay{}, false
	}
	end, err := wage.ParseTimeOfDay(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time format (use HH:MM)", err)
		return wage.TimeOfDay{}, wage.TimeOfDay{}, false
	}
	return start, end, true
}

func parseDateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required", nil)
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// writeDomainError maps lifecycle/store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case wage.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, wage.ErrInvalidState):
		writeError(w, http.StatusConflict, message, err)
	case wage.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

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
