package handlers

import (
	"strings"

	"meterhub/internal/adapters/http/middleware"
	"meterhub/internal/core/services"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReadingHandler handles meter reading endpoints
type ReadingHandler struct {
	ledger       *services.LedgerService
	maxDimension int
}

// NewReadingHandler creates a new reading handler. Uploaded photos are
// downscaled to fit maxDimension.
func NewReadingHandler(ledger *services.LedgerService, maxDimension int) *ReadingHandler {
	return &ReadingHandler{
		ledger:       ledger,
		maxDimension: maxDimension,
	}
}

// AppendReading godoc
// @Summary Record a meter reading
// @Tags Readings
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param meter_id formData string true "Meter number"
// @Param reading_value formData number true "Reading value"
// @Param photo formData file false "Meter photo (jpg, jpeg, png)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 415 {object} response.Response
// @Router /update-meter-reading [post]
func (h *ReadingHandler) AppendReading(c *fiber.Ctx) error {
	meterNumber, err := fieldValue(c, "meter_id")
	if err != nil {
		return respondError(c, err, "Failed to update meter reading")
	}
	if meterNumber == "" {
		return response.BadRequest(c, "meter_id is required")
	}

	value, err := readingValue(c, "reading_value")
	if err != nil {
		return respondError(c, err, "Failed to update meter reading")
	}

	photo, err := readPhoto(c, h.maxDimension)
	if err != nil {
		return respondError(c, err, "Failed to process photo")
	}

	record, err := h.ledger.AppendReading(c.Context(), &services.AppendReadingInput{
		MeterNumber: meterNumber,
		Value:       value,
		Photo:       photo,
	})
	if err != nil {
		return respondError(c, err, "Failed to update meter reading")
	}

	return response.Success(c, "Meter reading updated successfully", record)
}

// CorrectReading godoc
// @Summary Correct a stored reading
// @Description Rewrite one reading and recompute the differences of every later reading of the meter
// @Tags Readings
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param meterId path string true "Meter number"
// @Param readingId path int true "Reading record ID"
// @Param new_reading_value formData number true "Corrected value"
// @Param photo formData file false "Replacement photo (jpg, jpeg, png)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /update-meter-reading/{meterId}/{readingId} [put]
func (h *ReadingHandler) CorrectReading(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	meterNumber := strings.TrimSpace(c.Params("meterId"))
	readingID, ok := paramID(c, "readingId")
	if meterNumber == "" || !ok {
		return response.BadRequest(c, "Invalid meter or reading ID")
	}

	value, err := readingValue(c, "new_reading_value")
	if err != nil {
		return respondError(c, err, "Failed to update reading")
	}

	photo, err := readPhoto(c, h.maxDimension)
	if err != nil {
		return respondError(c, err, "Failed to process photo")
	}

	result, err := h.ledger.CorrectReading(c.Context(), &services.CorrectReadingInput{
		MeterNumber: meterNumber,
		ReadingID:   readingID,
		Value:       value,
		Photo:       photo,
		Actor:       actor,
	})
	if err != nil {
		return respondError(c, err, "Failed to update reading")
	}

	return response.Success(c, "Reading updated and subsequent differences recalculated", result)
}

// History godoc
// @Summary Latest readings of a meter
// @Description The ten most recent readings, newest first
// @Tags Readings
// @Produce json
// @Security BearerAuth
// @Param meterId path string true "Meter number"
// @Success 200 {object} response.Response
// @Router /meter-history/{meterId} [get]
func (h *ReadingHandler) History(c *fiber.Ctx) error {
	records, err := h.ledger.History(c.Context(), c.Params("meterId"))
	if err != nil {
		return respondError(c, err, "Failed to get meter history")
	}
	return response.Success(c, "Meter history retrieved successfully", records)
}
