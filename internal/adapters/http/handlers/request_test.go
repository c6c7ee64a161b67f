package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"meterhub/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseReading(t *testing.T, contentType, body string) (string, error) {
	t.Helper()

	var got string
	var gotErr error
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		v, err := readingValue(c, "new_reading_value")
		got, gotErr = v.String(), err
		return nil
	})

	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, contentType)
	_, err := app.Test(req)
	require.NoError(t, err)
	return got, gotErr
}

func TestReadingValue(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
		wantErr     error
	}{
		{"json number", fiber.MIMEApplicationJSON, `{"new_reading_value": 12.345}`, "12.345", nil},
		{"json string", fiber.MIMEApplicationJSON, `{"new_reading_value": "7"}`, "7", nil},
		{"form", fiber.MIMEApplicationForm, "new_reading_value=100.5", "100.5", nil},
		{"missing", fiber.MIMEApplicationJSON, `{}`, "", domain.ErrInvalidReading},
		{"not a number", fiber.MIMEApplicationForm, "new_reading_value=abc", "", domain.ErrInvalidReading},
		{"broken json", fiber.MIMEApplicationJSON, `{"new_reading_value":`, "", domain.ErrInvalidInput},
		{"three decimals", fiber.MIMEApplicationForm, "new_reading_value=1.125", "1.125", nil},
		{"trailing zeros", fiber.MIMEApplicationJSON, `{"new_reading_value": "2.50000"}`, "2.5", nil},
		{"four decimals", fiber.MIMEApplicationForm, "new_reading_value=1.1255", "", domain.ErrInvalidReading},
		{"largest", fiber.MIMEApplicationJSON, `{"new_reading_value": 999999999999.999}`, "999999999999.999", nil},
		{"out of range", fiber.MIMEApplicationJSON, `{"new_reading_value": 1000000000000}`, "", domain.ErrInvalidReading},
		{"negative out of range", fiber.MIMEApplicationForm, "new_reading_value=-1000000000000", "", domain.ErrInvalidReading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReading(t, tt.contentType, tt.body)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamID(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		if id, ok := paramID(c, "id"); ok {
			return c.JSON(id)
		}
		return c.SendStatus(fiber.StatusBadRequest)
	})

	for path, want := range map[string]int{"/12": fiber.StatusOK, "/0": fiber.StatusBadRequest, "/x": fiber.StatusBadRequest} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
