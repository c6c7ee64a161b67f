package handlers

import (
	"errors"

	"meterhub/internal/adapters/storage"
	"meterhub/internal/core/domain"
	"meterhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// respondError maps domain errors to HTTP responses. Anything unrecognized is
// logged and reported as fallback with status 500.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidReading),
		errors.Is(err, domain.ErrInvalidMeterType),
		errors.Is(err, domain.ErrInvalidScope),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, storage.ErrInvalidPhoto):
		return response.BadRequest(c, err.Error())

	case errors.Is(err, storage.ErrUnsupportedPhoto):
		return response.UnsupportedMediaType(c, err.Error())

	case errors.Is(err, domain.ErrCampusNotFound),
		errors.Is(err, domain.ErrLocationTypeNotFound),
		errors.Is(err, domain.ErrMeterNotFound),
		errors.Is(err, domain.ErrReadingNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, domain.ErrCampusAlreadyExists),
		errors.Is(err, domain.ErrMeterAlreadyExists),
		errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrDuplicateEntry):
		return response.Conflict(c, err.Error())

	case errors.Is(err, domain.ErrEditWindowExpired),
		errors.Is(err, domain.ErrCorrectionNotAllowed),
		errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg(fallback)
	return response.InternalServerError(c, fallback)
}
