package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/innotter/backend/internal/services"
)

type SearchHandler struct {
	userService *services.UserService
	pageService *services.PageService
}

func NewSearchHandler(userService *services.UserService, pageService *services.PageService) *SearchHandler {
	return &SearchHandler{userService: userService, pageService: pageService}
}

// Search handles GET /search?type=user|page&q=...
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "q query parameter is required")
	}

	switch c.Query("type") {
	case "user":
		users, err := h.userService.Search(query)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(users)
	case "page":
		pages, err := h.pageService.Search(query)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(pages)
	}
	return badRequest(c, "type must be user or page")
}
