// Package display maps stored meter codes to the labels shown to users.
// Stored rows keep the coded values; labels are only produced at the HTTP boundary.
package display

import "meterhub/internal/core/domain"

// Unset is shown for any meter attribute that has not been configured yet.
const Unset = "Not set"

var brandLabels = map[string]string{
	"1": "Schneider",
	"2": "Other",
}

var ctValueLabels = map[string]string{
	"1": "CT ratio installed",
	"2": "None",
}

// MeterType returns the label for a meter kind.
func MeterType(meterType string) string {
	switch domain.MeterType(meterType) {
	case domain.MeterTypeDigital:
		return "Digital"
	case domain.MeterTypeMechanical:
		return "Mechanical"
	default:
		return Unset
	}
}

// Brand returns the label for a digital meter brand code. Unknown codes pass through.
func Brand(code string) string {
	return lookup(brandLabels, code)
}

// CTValue returns the label for a mechanical meter CT value code. Unknown codes pass through.
func CTValue(code string) string {
	return lookup(ctValueLabels, code)
}

// TypeSpecificInfo returns the kind-specific attribute label: the brand for digital
// meters, the CT value for mechanical ones.
func TypeSpecificInfo(meterType, brand, ctValue string) string {
	switch domain.MeterType(meterType) {
	case domain.MeterTypeDigital:
		return Brand(brand)
	case domain.MeterTypeMechanical:
		return CTValue(ctValue)
	default:
		return Unset
	}
}

func lookup(labels map[string]string, code string) string {
	if code == "" {
		return Unset
	}
	if label, ok := labels[code]; ok {
		return label
	}
	return code
}
