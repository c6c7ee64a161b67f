package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Role represents user role in the system
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDataManager Role = "data_manager"
	RoleReader      Role = "reader"
)

// Roles lists every assignable role
var Roles = []Role{RoleAdmin, RoleDataManager, RoleReader}

// ValidRole reports whether s names a known role
func ValidRole(s string) bool {
	for _, r := range Roles {
		if string(r) == s {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID   uint
	Username string
	Role     Role
}

// MeterType is the kind of an electric meter
type MeterType string

const (
	MeterTypeDigital    MeterType = "digital"
	MeterTypeMechanical MeterType = "mechanical"
)

// MeterTypes lists every meter kind
var MeterTypes = []MeterType{MeterTypeDigital, MeterTypeMechanical}

// ValidMeterType reports whether t names a known meter kind
func ValidMeterType(t MeterType) bool {
	for _, k := range MeterTypes {
		if k == t {
			return true
		}
	}
	return false
}

// MeterListScope selects which meters a listing covers
type MeterListScope string

const (
	ScopeLocation MeterListScope = "location"
	ScopeCampus   MeterListScope = "campus"
)

// ReadingScale is the number of decimal places a stored reading keeps
const ReadingScale = 3

// maxReading is the exclusive bound of a decimal(15,3) column
var maxReading = decimal.New(1, 15-ReadingScale)

// ValidateReading rejects values the reading columns cannot hold exactly
func ValidateReading(v decimal.Decimal) error {
	if !v.Equal(v.Round(ReadingScale)) {
		return fmt.Errorf("%w: at most %d decimal places are allowed", ErrInvalidReading, ReadingScale)
	}
	if v.Abs().GreaterThanOrEqual(maxReading) {
		return fmt.Errorf("%w: value must be below %s", ErrInvalidReading, maxReading)
	}
	return nil
}
