/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Shifts:
    ShiftDTO, CreateShiftRequest, BatchCreateShiftRequest, UpdateShiftRequest

  Allowances:
    AllowanceDTO (one weekly bucket with its derived amounts)

  Contracts:
    ContractDTO, CreateContractRequest (wraps factory.ContractJSON)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

MONEY AND HOURS:
  Decimal fields are serialized as strings ("80000", "43.5"), never as JSON
  numbers. Clients doing arithmetic on money must parse them exactly.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: ContractJSON type
*/
package api

import (
	"time"

	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// SHIFT TYPES
// =============================================================================

// ShiftDTO represents a shift record in API responses.
type ShiftDTO struct {
	ID            string `json:"id"`
	ContractID    string `json:"contract_id"`
	BucketID      string `json:"bucket_id,omitempty"`
	WorkDate      string `json:"work_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BreakMinutes  int    `json:"break_minutes"`
	WorkedMinutes int    `json:"worked_minutes"`
	Status        string `json:"status"`
	Memo          string `json:"memo,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// CreateShiftRequest is the request to record a single shift.
type CreateShiftRequest struct {
	ContractID   string `json:"contract_id"`
	WorkDate     string `json:"work_date"` // YYYY-MM-DD
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
	Memo         string `json:"memo,omitempty"`
}

// BatchCreateShiftRequest records the same shift shape on several dates.
type BatchCreateShiftRequest struct {
	ContractID   string   `json:"contract_id"`
	WorkDates    []string `json:"work_dates"` // YYYY-MM-DD each
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	BreakMinutes int      `json:"break_minutes"`
	Memo         string   `json:"memo,omitempty"`
}

// UpdateShiftRequest carries optional field changes. Absent fields are left
// as-is; supplying any of start_time/end_time/break_minutes makes the update
// time-affecting.
type UpdateShiftRequest struct {
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	BreakMinutes *int    `json:"break_minutes,omitempty"`
	Memo         *string `json:"memo,omitempty"`
}

// =============================================================================
// ALLOWANCE TYPES
// =============================================================================

// AllowanceDTO represents one weekly bucket with its derived amounts.
type AllowanceDTO struct {
	BucketID        string `json:"bucket_id"`
	ContractID      string `json:"contract_id"`
	Week            string `json:"week"` // "2025-W31"
	WeekStart       string `json:"week_start"`
	WeekEnd         string `json:"week_end"`
	TotalHours      string `json:"total_hours"`
	PaidLeaveAmount string `json:"paid_leave_amount"`
	OvertimeHours   string `json:"overtime_hours"`
	OvertimeAmount  string `json:"overtime_amount"`
}

// =============================================================================
// CONTRACT TYPES
// =============================================================================

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID          string `json:"id"`
	WorkerID    string `json:"worker_id"`
	WorkplaceID string `json:"workplace_id"`
	HourlyRate  string `json:"hourly_rate"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateContractRequest is the request to register a contract.
type CreateContractRequest struct {
	Config factory.ContractJSON `json:"config"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects which scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const dateLayout = "2006-01-02"

func toShiftDTO(s wage.ShiftRecord) ShiftDTO {
	return ShiftDTO{
		ID:            string(s.ID),
		ContractID:    string(s.ContractID),
		BucketID:      string(s.BucketID),
		WorkDate:      s.WorkDate.Format(dateLayout),
		StartTime:     s.Start.String(),
		EndTime:       s.End.String(),
		BreakMinutes:  s.BreakMinutes,
		WorkedMinutes: s.WorkedMinutes,
		Status:        string(s.Status),
		Memo:          s.Memo,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

func toShiftDTOs(shifts []wage.ShiftRecord) []ShiftDTO {
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	return dtos
}

func toAllowanceDTO(b wage.WeeklyBucket) AllowanceDTO {
	return AllowanceDTO{
		BucketID:        string(b.ID),
		ContractID:      string(b.ContractID),
		Week:            b.Week.String(),
		WeekStart:       b.Week.Start().Format(dateLayout),
		WeekEnd:         b.Week.End().Format(dateLayout),
		TotalHours:      b.TotalHours.String(),
		PaidLeaveAmount: b.PaidLeaveAmount.String(),
		OvertimeHours:   b.OvertimeHours.String(),
		OvertimeAmount:  b.OvertimeAmount.String(),
	}
}

func toContractDTO(c wage.Contract) ContractDTO {
	return ContractDTO{
		ID:          string(c.ID),
		WorkerID:    string(c.WorkerID),
		WorkplaceID: string(c.WorkplaceID),
		HourlyRate:  c.HourlyRate.String(),
		Currency:    c.Currency,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}
