package handlers

import (
	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/pkg/display"
)

// MeterView is a meter with its display labels
type MeterView struct {
	*models.Meter
	MeterTypeDisplay string `json:"meter_type_display"`
	TypeSpecificInfo string `json:"type_specific_info"`
	BrandName        string `json:"brand_name,omitempty"`
	CTValueName      string `json:"ct_value_name,omitempty"`
}

func newMeterView(m *models.Meter) *MeterView {
	v := &MeterView{
		Meter:            m,
		MeterTypeDisplay: display.MeterType(m.MeterType),
		TypeSpecificInfo: display.TypeSpecificInfo(m.MeterType, m.Brand, m.CTValue),
	}
	if m.Brand != "" {
		v.BrandName = display.Brand(m.Brand)
	}
	if m.CTValue != "" {
		v.CTValueName = display.CTValue(m.CTValue)
	}
	return v
}

func newMeterViews(meters []*models.Meter) []*MeterView {
	views := make([]*MeterView, len(meters))
	for i, m := range meters {
		views[i] = newMeterView(m)
	}
	return views
}
