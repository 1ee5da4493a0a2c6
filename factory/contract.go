/*
Package factory provides JSON to Go contract conversion.

PURPOSE:
  Converts JSON contract definitions into wage.Contract and wage.Worker
  values. Contract management lives outside this engine; what arrives here
  is the serialized form an admin surface or an import job produces, and the
  factory is the single place that validates it.

JSON SCHEMA:
  {
    "id": "ct-cafe-001",
    "workplace_id": "wp-cafe",
    "hourly_rate": "10000",
    "currency": "KRW",
    "worker": {
      "id": "wk-001",
      "user_id": "user-001",
      "name": "Jiwoo Park"
    }
  }

KEY FEATURES:
  - Validates required fields
  - Parses the hourly rate as an exact decimal (never a float)
  - Rejects negative rates
  - Defaults currency to KRW

USAGE:
  f := factory.NewContractFactory()
  contract, worker, err := f.ParseContract(jsonStr)

SEE ALSO:
  - wage/types.go: Contract and Worker definitions
  - api/handlers.go: the contract-registration endpoint using this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// JSON TYPES
// =============================================================================

// ContractJSON is the wire form of a contract definition.
type ContractJSON struct {
	ID          string     `json:"id"`
	WorkplaceID string     `json:"workplace_id"`
	HourlyRate  string     `json:"hourly_rate"`
	Currency    string     `json:"currency,omitempty"`
	Worker      WorkerJSON `json:"worker"`
}

// WorkerJSON is the wire form of the worker attached to a contract.
type WorkerJSON struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// =============================================================================
// FACTORY
// =============================================================================

// ContractFactory converts JSON definitions into domain values.
type ContractFactory struct{}

func NewContractFactory() *ContractFactory {
	return &ContractFactory{}
}

// ParseContract validates and converts a JSON contract definition.
func (f *ContractFactory) ParseContract(jsonStr string) (wage.Contract, wage.Worker, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("invalid contract JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts an already-decoded definition.
func (f *ContractFactory) FromJSON(cj ContractJSON) (wage.Contract, wage.Worker, error) {
	if cj.ID == "" {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("contract id is required")
	}
	if cj.WorkplaceID == "" {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("workplace_id is required")
	}
	if cj.Worker.ID == "" {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("worker.id is required")
	}

	rate, err := decimal.NewFromString(cj.HourlyRate)
	if err != nil {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("invalid hourly_rate %q: %w", cj.HourlyRate, err)
	}
	if rate.IsNegative() {
		return wage.Contract{}, wage.Worker{}, fmt.Errorf("hourly_rate must not be negative")
	}

	currency := cj.Currency
	if currency == "" {
		currency = "KRW"
	}

	contract := wage.Contract{
		ID:          wage.ContractID(cj.ID),
		WorkerID:    wage.WorkerID(cj.Worker.ID),
		WorkplaceID: wage.WorkplaceID(cj.WorkplaceID),
		HourlyRate:  rate,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}
	worker := wage.Worker{
		ID:     wage.WorkerID(cj.Worker.ID),
		UserID: wage.UserID(cj.Worker.UserID),
		Name:   cj.Worker.Name,
	}
	return contract, worker, nil
}

// =============================================================================
// PRESETS
// =============================================================================

// StandardContractJSON builds a definition for a flat hourly rate in minor
// units. Used by demo scenarios and tests.
func StandardContractJSON(id, workplaceID, workerID, userID, name string, hourlyRate int64) string {
	cj := ContractJSON{
		ID:          id,
		WorkplaceID: workplaceID,
		HourlyRate:  decimal.NewFromInt(hourlyRate).String(),
		Currency:    "KRW",
		Worker: WorkerJSON{
			ID:     workerID,
			UserID: userID,
			Name:   name,
		},
	}
	b, _ := json.Marshal(cj)
	return string(b)
}
