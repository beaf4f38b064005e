package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/innotter/backend/internal/middleware"
	"github.com/innotter/backend/internal/permissions"
	"github.com/innotter/backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	user, err := h.userService.Get(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.Actor(c))
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	target, err := h.userService.Get(id)
	if err != nil {
		return serviceError(c, err)
	}

	fields, raw, err := partialUpdate(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if d := permissions.CanWriteUser(actor, target, permissions.Verb(c.Method()), fields); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	updated, err := h.userService.Update(target, raw)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	target, err := h.userService.Get(id)
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanDeleteUser(actor, target); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	if err := h.userService.Delete(target.ID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User has been deleted"})
}

func (h *UserHandler) LikedPosts(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	posts, err := h.userService.LikedPosts(actor.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(posts)
}

func (h *UserHandler) News(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	posts, err := h.userService.NewsFeed(actor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(posts)
}
