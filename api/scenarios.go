/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Pre-built data sets for demos and manual testing. Each scenario resets the
  database, registers a contract, and records a week of shifts through the
  normal lifecycle service, so the loaded state is exactly what real usage
  would produce.

SCENARIOS:
  standard-week: 5 x 8h at 10,000/h. 40 hours total - a full statutory week.
                 Paid-leave allowance 80,000, no overtime.
  overtime-week: 6 x 8h at 10,000/h. 48 hours total. Paid-leave allowance
                 96,000 plus 8 overtime hours paying 120,000 at the 1.5x
                 premium.

SEE ALSO:
  - handlers.go: LoadScenario endpoint wiring
  - factory/contract.go: the contract definition each scenario registers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/shifts"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(ctx context.Context, h *Handler) error
}

// Monday of an arbitrary fixed ISO week so loaded data is reproducible.
var demoMonday = time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC) // 2025-W31

var scenarios = []scenario{
	{
		ID:          "standard-week",
		Name:        "Standard Week",
		Description: "5 shifts of 8 hours at 10,000/h. Full 40-hour week: paid-leave allowance 80,000, no overtime.",
		Load:        loadStandardWeek,
	},
	{
		ID:          "overtime-week",
		Name:        "Overtime Week",
		Description: "6 shifts of 8 hours at 10,000/h. 48 hours: paid-leave allowance 96,000 plus 120,000 overtime pay.",
		Load:        loadOvertimeWeek,
	},
}

func loadStandardWeek(ctx context.Context, h *Handler) error {
	return loadDemoWeek(ctx, h, 5)
}

func loadOvertimeWeek(ctx context.Context, h *Handler) error {
	return loadDemoWeek(ctx, h, 6)
}

// loadDemoWeek registers the demo contract and records days consecutive
// 8-hour shifts starting on the demo Monday.
func loadDemoWeek(ctx context.Context, h *Handler, days int) error {
	contract, worker, err := h.Factory.FromJSON(demoContract())
	if err != nil {
		return err
	}
	if err := h.Store.SaveContract(ctx, contract); err != nil {
		return err
	}
	if err := h.Store.SaveWorker(ctx, worker); err != nil {
		return err
	}

	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = demoMonday.AddDate(0, 0, i)
	}

	_, err = h.Service.BatchCreate(ctx, shifts.BatchCreateRequest{
		ContractID:   contract.ID,
		WorkDates:    dates,
		Start:        wage.TimeOfDay{Hour: 9, Minute: 0},
		End:          wage.TimeOfDay{Hour: 18, Minute: 0},
		BreakMinutes: 60, // 8 worked hours per shift
		Memo:         "demo shift",
	})
	return err
}

func demoContract() factory.ContractJSON {
	return factory.ContractJSON{
		ID:          "ct-demo-cafe",
		WorkplaceID: "wp-demo-cafe",
		HourlyRate:  "10000",
		Currency:    "KRW",
		Worker: factory.WorkerJSON{
			ID:     "wk-demo-001",
			UserID: "user-demo-001",
			Name:   "Jiwoo Park",
		},
	}
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns which scenario is currently loaded, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": h.currentScenario})
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var selected *scenario
	for i := range scenarios {
		if scenarios[i].ID == req.ScenarioID {
			selected = &scenarios[i]
			break
		}
	}
	if selected == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := selected.Load(ctx, h); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = selected.ID

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "loaded",
		"scenario_id": selected.ID,
	})
}
