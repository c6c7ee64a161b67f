package handlers

import (
	"strings"

	"meterhub/internal/core/domain"
	"meterhub/internal/core/services"
	"meterhub/internal/pkg/pagination"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MeterHandler handles the meter registry endpoints
type MeterHandler struct {
	catalog *services.CatalogService
}

// NewMeterHandler creates a new meter handler
func NewMeterHandler(catalog *services.CatalogService) *MeterHandler {
	return &MeterHandler{catalog: catalog}
}

// ListMeters godoc
// @Summary List meters
// @Description Paginated list of every meter with display labels
// @Tags Meters
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /meters [get]
func (h *MeterHandler) ListMeters(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	meters, total, err := h.catalog.ListMeters(c.Context(), params.Page, params.Limit)
	if err != nil {
		return respondError(c, err, "Failed to list meters")
	}

	return response.Success(c, "Meters retrieved successfully", pagination.NewResponse(newMeterViews(meters), params, total))
}

// ListMetersForScope godoc
// @Summary List meters of a location type or campus
// @Tags Meters
// @Produce json
// @Security BearerAuth
// @Param type path string true "location or campus"
// @Param id path int true "Location type ID or campus ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /meters/{type}/{id} [get]
func (h *MeterHandler) ListMetersForScope(c *fiber.Ctx) error {
	scope := domain.MeterListScope(c.Params("type"))
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid ID")
	}

	listing, err := h.catalog.ListMetersForScope(c.Context(), scope, id)
	if err != nil {
		return respondError(c, err, "Failed to list meters")
	}

	var locationData interface{} = listing.Locations
	if scope == domain.ScopeLocation {
		locationData = listing.Location
	}

	return response.Success(c, "Meters retrieved successfully", fiber.Map{
		"location_data": locationData,
		"meters":        newMeterViews(listing.Meters),
	})
}

// CreateMeter godoc
// @Summary Register meter
// @Description Register a meter and add it to its location type, creating the location type if needed
// @Tags Meters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMeterInput true "Meter"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /meters [post]
func (h *MeterHandler) CreateMeter(c *fiber.Ctx) error {
	var input services.CreateMeterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	meter, err := h.catalog.CreateMeter(c.Context(), &input)
	if err != nil {
		return respondError(c, err, "Failed to create meter")
	}
	return response.Created(c, "Meter created successfully", newMeterView(meter))
}

// DeleteMeter godoc
// @Summary Delete meter
// @Description Delete a meter, its reading history and its location type membership
// @Tags Meters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meter ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /meters/{id} [delete]
func (h *MeterHandler) DeleteMeter(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid meter ID")
	}

	if err := h.catalog.DeleteMeter(c.Context(), id); err != nil {
		return respondError(c, err, "Failed to delete meter")
	}
	return response.Success(c, "Meter deleted successfully", nil)
}

// UpdateMeter godoc
// @Summary Update meter attributes
// @Tags Meters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meter_number path string true "Meter number"
// @Param body body services.UpdateMeterInput true "Attributes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /meters/{meter_number} [put]
func (h *MeterHandler) UpdateMeter(c *fiber.Ctx) error {
	meterNumber := strings.TrimSpace(c.Params("meter_number"))
	if meterNumber == "" {
		return response.BadRequest(c, "Meter number is required")
	}

	var input services.UpdateMeterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.catalog.UpdateMeter(c.Context(), meterNumber, &input); err != nil {
		return respondError(c, err, "Failed to update meter")
	}
	return response.Success(c, "Meter updated successfully", nil)
}
