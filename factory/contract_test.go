package factory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/wage"
)

func TestParseContract_Valid(t *testing.T) {
	f := NewContractFactory()

	jsonStr := StandardContractJSON("ct-1", "wp-1", "wk-1", "user-1", "Jiwoo Park", 10000)
	contract, worker, err := f.ParseContract(jsonStr)
	require.NoError(t, err)

	assert.Equal(t, wage.ContractID("ct-1"), contract.ID)
	assert.Equal(t, wage.WorkplaceID("wp-1"), contract.WorkplaceID)
	assert.Equal(t, wage.WorkerID("wk-1"), contract.WorkerID)
	assert.True(t, contract.HourlyRate.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "KRW", contract.Currency)

	assert.Equal(t, wage.WorkerID("wk-1"), worker.ID)
	assert.Equal(t, wage.UserID("user-1"), worker.UserID)
	assert.Equal(t, "Jiwoo Park", worker.Name)
}

func TestParseContract_FractionalRate_Exact(t *testing.T) {
	f := NewContractFactory()

	contract, _, err := f.FromJSON(ContractJSON{
		ID:          "ct-1",
		WorkplaceID: "wp-1",
		HourlyRate:  "10030.50",
		Worker:      WorkerJSON{ID: "wk-1", UserID: "user-1", Name: "A"},
	})
	require.NoError(t, err)
	assert.True(t, contract.HourlyRate.Equal(decimal.RequireFromString("10030.50")),
		"rate must parse exactly, got %s", contract.HourlyRate)
}

func TestParseContract_DefaultsCurrency(t *testing.T) {
	f := NewContractFactory()

	contract, _, err := f.FromJSON(ContractJSON{
		ID:          "ct-1",
		WorkplaceID: "wp-1",
		HourlyRate:  "9000",
		Worker:      WorkerJSON{ID: "wk-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "KRW", contract.Currency)
}

func TestParseContract_Rejections(t *testing.T) {
	f := NewContractFactory()

	cases := []struct {
		name string
		cj   ContractJSON
	}{
		{"missing id", ContractJSON{WorkplaceID: "wp-1", HourlyRate: "1", Worker: WorkerJSON{ID: "wk-1"}}},
		{"missing workplace", ContractJSON{ID: "ct-1", HourlyRate: "1", Worker: WorkerJSON{ID: "wk-1"}}},
		{"missing worker id", ContractJSON{ID: "ct-1", WorkplaceID: "wp-1", HourlyRate: "1"}},
		{"bad rate", ContractJSON{ID: "ct-1", WorkplaceID: "wp-1", HourlyRate: "lots", Worker: WorkerJSON{ID: "wk-1"}}},
		{"negative rate", ContractJSON{ID: "ct-1", WorkplaceID: "wp-1", HourlyRate: "-1", Worker: WorkerJSON{ID: "wk-1"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.FromJSON(tc.cj)
			assert.Error(t, err)
		})
	}
}

func TestParseContract_MalformedJSON(t *testing.T) {
	f := NewContractFactory()

	_, _, err := f.ParseContract("{not json")
	assert.Error(t, err)
}
