package display

import (
	"testing"

	"meterhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

var (
	digital    = string(domain.MeterTypeDigital)
	mechanical = string(domain.MeterTypeMechanical)
)

func TestMeterType(t *testing.T) {
	assert.Equal(t, "Digital", MeterType("digital"))
	assert.Equal(t, "Mechanical", MeterType("mechanical"))
	assert.Equal(t, Unset, MeterType(""))
	assert.Equal(t, Unset, MeterType("solar"))

	for _, kind := range domain.MeterTypes {
		assert.NotEqual(t, Unset, MeterType(string(kind)), kind)
	}
}

func TestTypeSpecificInfo(t *testing.T) {
	tests := []struct {
		name      string
		meterType string
		brand     string
		ctValue   string
		want      string
	}{
		{"digital known brand", digital, "1", "", "Schneider"},
		{"digital custom brand", digital, "ABB", "", "ABB"},
		{"digital missing brand", digital, "", "1", Unset},
		{"mechanical ct", mechanical, "1", "2", "None"},
		{"mechanical ct installed", mechanical, "", "1", "CT ratio installed"},
		{"unset kind", "", "1", "1", Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeSpecificInfo(tt.meterType, tt.brand, tt.ctValue))
		})
	}
}
