package handlers

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/innotter/backend/internal/dto"
	"github.com/innotter/backend/internal/permissions"
	"github.com/innotter/backend/internal/services"
	"github.com/innotter/backend/internal/subscriptions"
)

var validate = validator.New()

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return err
	}
	return nil
}

// partialUpdate extracts both the submitted field names (for the permission
// engine) and the raw values (for the service) from a PATCH/PUT body.
func partialUpdate(c *fiber.Ctx) (permissions.FieldSet, map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, nil, errors.New("invalid request body")
	}

	fields := make(permissions.FieldSet, len(raw))
	for name := range raw {
		fields[name] = struct{}{}
	}
	return fields, raw, nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func forbidden(c *fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: reason})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// serviceError maps the error taxonomy onto status codes: absent resources to
// 404, denied actions to 403, invalid state transitions to 400, everything
// else to 500.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPageNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrTagNotFound):
		return notFound(c, err.Error())

	case errors.Is(err, subscriptions.ErrNotPageOwner):
		return forbidden(c, err.Error())

	case errors.Is(err, subscriptions.ErrSelfFollow),
		errors.Is(err, subscriptions.ErrAlreadyFollowing),
		errors.Is(err, subscriptions.ErrRequestAlreadySent),
		errors.Is(err, subscriptions.ErrNotSubscribed),
		errors.Is(err, services.ErrLikeOwnPost),
		errors.Is(err, services.ErrNotLiked),
		errors.Is(err, services.ErrContentTooLong),
		errors.Is(err, services.ErrInvalidFieldValue),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
