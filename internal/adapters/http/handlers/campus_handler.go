package handlers

import (
	"strings"

	"meterhub/internal/core/services"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CampusHandler handles campus and location type endpoints
type CampusHandler struct {
	catalog *services.CatalogService
}

// NewCampusHandler creates a new campus handler
func NewCampusHandler(catalog *services.CatalogService) *CampusHandler {
	return &CampusHandler{catalog: catalog}
}

// CreateCampusRequest represents the campus creation body
type CreateCampusRequest struct {
	Name string `json:"name" form:"name"`
}

// ListCampuses godoc
// @Summary List campuses
// @Tags Campuses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /campuses [get]
func (h *CampusHandler) ListCampuses(c *fiber.Ctx) error {
	campuses, err := h.catalog.ListCampuses(c.Context())
	if err != nil {
		return respondError(c, err, "Failed to list campuses")
	}
	return response.Success(c, "Campuses retrieved successfully", campuses)
}

// CreateCampus godoc
// @Summary Create campus
// @Tags Campuses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCampusRequest true "Campus"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /campuses [post]
func (h *CampusHandler) CreateCampus(c *fiber.Ctx) error {
	var req CreateCampusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return response.BadRequest(c, "Campus name is required")
	}

	campus, err := h.catalog.CreateCampus(c.Context(), req.Name)
	if err != nil {
		return respondError(c, err, "Failed to create campus")
	}
	return response.Created(c, "Campus created successfully", campus)
}

// DeleteCampus godoc
// @Summary Delete campus
// @Description Delete a campus with its location types, meters and their reading history
// @Tags Campuses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campus ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /campuses/{id} [delete]
func (h *CampusHandler) DeleteCampus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid campus ID")
	}

	if err := h.catalog.DeleteCampus(c.Context(), id); err != nil {
		return respondError(c, err, "Failed to delete campus")
	}
	return response.Success(c, "Campus deleted successfully", nil)
}

// ListLocationTypes godoc
// @Summary List location types of a campus
// @Tags Campuses
// @Produce json
// @Security BearerAuth
// @Param campusId path int true "Campus ID"
// @Success 200 {object} response.Response
// @Router /location-types/{campusId} [get]
func (h *CampusHandler) ListLocationTypes(c *fiber.Ctx) error {
	campusID, ok := paramID(c, "campusId")
	if !ok {
		return response.BadRequest(c, "Invalid campus ID")
	}

	locations, err := h.catalog.ListLocationTypes(c.Context(), campusID)
	if err != nil {
		return respondError(c, err, "Failed to list location types")
	}
	return response.Success(c, "Location types retrieved successfully", locations)
}
