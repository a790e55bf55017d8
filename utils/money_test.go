package utils_test

import (
	"errors"
	"testing"

	"bgmi-arena/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWholeAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100", 100, false},
		{"100.00", 100, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"10.5", 0, true},
		{"99999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := utils.WholeAmount("amount", decimal.RequireFromString(tt.in))
			if tt.wantErr {
				assert.True(t, errors.Is(err, utils.ErrValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalAmountAllowsZero(t *testing.T) {
	got, err := utils.OptionalAmount("entryFee", decimal.Zero)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAmountAcceptsQuotedJSON(t *testing.T) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	require.NoError(t, body.Amount.UnmarshalJSON([]byte(`"250"`)))
	got, err := utils.WholeAmount("amount", body.Amount)
	require.NoError(t, err)
	assert.Equal(t, int64(250), got)
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹10", utils.FormatRupees(10))
	assert.Equal(t, "₹1,000", utils.FormatRupees(1000))
	assert.Equal(t, "₹1,234,567", utils.FormatRupees(1234567))
}
