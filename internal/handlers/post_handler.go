package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/innotter/backend/internal/dto"
	"github.com/innotter/backend/internal/middleware"
	"github.com/innotter/backend/internal/models"
	"github.com/innotter/backend/internal/permissions"
	"github.com/innotter/backend/internal/services"
)

type PostHandler struct {
	postService *services.PostService
	pageService *services.PageService
}

func NewPostHandler(postService *services.PostService, pageService *services.PageService) *PostHandler {
	return &PostHandler{postService: postService, pageService: pageService}
}

// Create handles POST /pages/:id/posts.
func (h *PostHandler) Create(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.pageByParam(c, "id")
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanCreatePost(actor, page); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	var req dto.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.postService.Create(page, req.Content, nil)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ListForPage handles GET /pages/:id/posts.
func (h *PostHandler) ListForPage(c *fiber.Ctx) error {
	page, err := h.pageByParam(c, "id")
	if err != nil {
		return serviceError(c, err)
	}

	posts, err := h.postService.ListForPage(page.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(posts)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	post, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(post)
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	post, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanWritePost(actor, &post.Page); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	var req dto.UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.postService.Update(post, req.Content)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	post, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanDeletePost(actor, &post.Page); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	if err := h.postService.Delete(post); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post has been deleted"})
}

func (h *PostHandler) Like(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	post, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.postService.Like(actor, post); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post has been liked"})
}

func (h *PostHandler) Unlike(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	post, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.postService.Unlike(actor, post); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post has been unliked"})
}

// Reply handles POST /posts/:id/reply: a new post on one of the actor's own
// pages, threaded under the target post.
func (h *PostHandler) Reply(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	parent, err := h.post(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req struct {
		PageID  uuid.UUID `json:"page_id" validate:"required"`
		Content string    `json:"content" validate:"required,max=180"`
	}
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	page, err := h.pageService.Get(req.PageID)
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanCreatePost(actor, page); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	post, err := h.postService.Reply(page, parent, req.Content)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) post(c *fiber.Ctx) (*models.Post, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, services.ErrPostNotFound
	}
	return h.postService.Get(id)
}

func (h *PostHandler) pageByParam(c *fiber.Ctx, param string) (*models.Page, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return nil, services.ErrPageNotFound
	}
	return h.pageService.Get(id)
}
