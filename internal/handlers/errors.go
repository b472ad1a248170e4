package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/httpx"
)

// respondError maps the domain error taxonomy onto HTTP status codes. The
// mapping lives only here: services and repositories never see HTTP.
func respondError(c *fiber.Ctx, err error) error {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return httpx.NotFound(c, notFound.Error())
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return httpx.Error(c, fiber.StatusBadRequest, "VALIDATION_ERROR", validation.Error(), nil)
	}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return httpx.Error(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", insufficient.Error(), map[string]interface{}{
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	}

	var notAllowed *domain.CancellationNotAllowedError
	if errors.As(err, &notAllowed) {
		return httpx.Error(c, fiber.StatusBadRequest, "CANCELLATION_NOT_ALLOWED", notAllowed.Error(), nil)
	}

	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return httpx.Error(c, fiber.StatusBadRequest, "INVALID_TRANSITION", transition.Error(), nil)
	}

	var duplicate *domain.DuplicateError
	if errors.As(err, &duplicate) {
		return httpx.Error(c, fiber.StatusConflict, "CONFLICT", duplicate.Error(), nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return httpx.Error(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}
