package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateReading(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"12.345", true},
		{"12.3450", true},
		{"-5.5", true},
		{"999999999999.999", true},
		{"12.3456", false},
		{"1000000000000", false},
		{"-1000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateReading(decimal.RequireFromString(tt.value))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidReading), "got %v", err)
		})
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("data_manager"))
	assert.False(t, ValidRole("superuser"))
}

func TestValidMeterType(t *testing.T) {
	assert.True(t, ValidMeterType(MeterTypeDigital))
	assert.True(t, ValidMeterType(MeterTypeMechanical))
	assert.False(t, ValidMeterType("solar"))
}
