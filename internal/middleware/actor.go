package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/innotter/backend/internal/dto"
	"github.com/innotter/backend/internal/models"
)

const actorKey = "actor"

// LoadActor resolves the authenticated user from the verified JWT and stores
// it in the request context. It must run after JWTProtected.
func LoadActor(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := subjectID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: user does not exist",
			})
		}

		c.Locals(actorKey, &user)
		return c.Next()
	}
}

// Actor returns the resolved user, or nil for an anonymous request.
func Actor(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(actorKey).(*models.User); ok {
		return user
	}
	return nil
}

func subjectID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
