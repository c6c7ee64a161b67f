package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Catalog errors
var (
	ErrCampusNotFound       = errors.New("campus not found")
	ErrCampusAlreadyExists  = errors.New("campus already exists")
	ErrLocationTypeNotFound = errors.New("location type not found")
	ErrMeterNotFound        = errors.New("meter not found")
	ErrMeterAlreadyExists   = errors.New("meter number already exists")
	ErrInvalidMeterType     = errors.New("invalid meter type")
	ErrInvalidScope         = errors.New("invalid meter list type")
)

// Ledger errors
var (
	ErrReadingNotFound      = errors.New("reading record not found")
	ErrInvalidReading       = errors.New("invalid reading value")
	ErrEditWindowExpired    = errors.New("reading can no longer be edited by this role")
	ErrCorrectionNotAllowed = errors.New("role may not correct readings")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("username already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidPassword   = errors.New("password does not meet requirements")
)
