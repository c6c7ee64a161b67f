package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"meterhub/internal/adapters/storage"
	"meterhub/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// fieldValue reads a field from a form body or from a JSON object body. JSON
// numbers are returned in their literal form.
func fieldValue(c *fiber.Ctx, field string) (string, error) {
	if !isJSON(c) {
		return strings.TrimSpace(c.FormValue(field)), nil
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	raw, ok := body[field]
	if !ok || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	return strings.TrimSpace(string(raw)), nil
}

// readingValue parses a required decimal reading field
func readingValue(c *fiber.Ctx, field string) (decimal.Decimal, error) {
	raw, err := fieldValue(c, field)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", domain.ErrInvalidReading, field)
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidReading, field)
	}
	if err := domain.ValidateReading(value); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// readPhoto returns the normalized JPEG of an optional "photo" upload, or nil
// when the request carries none
func readPhoto(c *fiber.Ctx, maxDimension int) ([]byte, error) {
	if !isMultipart(c) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidInput)
	}

	files := form.File["photo"]
	if len(files) == 0 {
		return nil, nil
	}

	fh := files[0]
	if !storage.Allowed(fh.Filename, fh.Header.Get(fiber.HeaderContentType)) {
		return nil, storage.ErrUnsupportedPhoto
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable photo", domain.ErrInvalidInput)
	}
	defer f.Close()

	return storage.Normalize(f, maxDimension)
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
