package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/innotter/backend/internal/dto"
	"github.com/innotter/backend/internal/middleware"
	"github.com/innotter/backend/internal/models"
	"github.com/innotter/backend/internal/permissions"
	"github.com/innotter/backend/internal/services"
	"github.com/innotter/backend/internal/subscriptions"
)

type PageHandler struct {
	pageService *services.PageService
	subs        *subscriptions.Manager
}

func NewPageHandler(pageService *services.PageService, subs *subscriptions.Manager) *PageHandler {
	return &PageHandler{pageService: pageService, subs: subs}
}

func (h *PageHandler) List(c *fiber.Ctx) error {
	pages, err := h.pageService.List()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(pages)
}

func (h *PageHandler) Get(c *fiber.Ctx) error {
	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}
	if d := permissions.CanReadPage(middleware.Actor(c), page); !d.Allowed {
		return forbidden(c, d.Reason)
	}
	return c.JSON(page)
}

func (h *PageHandler) Create(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	var req dto.CreatePageRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	page, err := h.pageService.Create(actor, req.Name, req.Description, req.IsPrivate, req.Tags)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

func (h *PageHandler) Update(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	fields, raw, err := partialUpdate(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if d := permissions.CanWritePage(actor, page, permissions.Verb(c.Method()), fields); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	updated, err := h.pageService.Update(page, raw)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

func (h *PageHandler) Delete(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	if d := permissions.CanDeletePage(actor, page); !d.Allowed {
		return forbidden(c, d.Reason)
	}

	if err := h.pageService.Delete(page); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Page has been deleted"})
}

func (h *PageHandler) AddTags(c *fiber.Ctx) error {
	return h.modifyTags(c, h.pageService.AddTags, "Tags have been added")
}

func (h *PageHandler) RemoveTags(c *fiber.Ctx) error {
	return h.modifyTags(c, h.pageService.RemoveTags, "Tags have been removed")
}

func (h *PageHandler) modifyTags(c *fiber.Ctx, apply func(*models.Page, []string) error, message string) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}
	if actor.ID != page.OwnerID {
		return forbidden(c, "only the page owner may modify tags")
	}

	var req dto.ModifyTagsRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := apply(page, req.Tags); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

func (h *PageHandler) Subscribe(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	state, err := h.subs.Follow(actor, page)
	if err != nil {
		return serviceError(c, err)
	}

	message := "You have subscribed to the page"
	if state == subscriptions.StateRequested {
		message = "Follow request has been sent"
	}
	return c.JSON(dto.SubscriptionResponse{State: string(state), Message: message})
}

func (h *PageHandler) Unsubscribe(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	cleared, err := h.subs.Unfollow(actor, page)
	if err != nil {
		return serviceError(c, err)
	}

	message := "You have unsubscribed from the page"
	if cleared == subscriptions.StateRequested {
		message = "Your follow request has been canceled"
	}
	return c.JSON(dto.SubscriptionResponse{State: string(subscriptions.StateNone), Message: message})
}

func (h *PageHandler) AcceptRequests(c *fiber.Ctx) error {
	return h.decideRequests(c, h.subs.Accept, "accepted")
}

func (h *PageHandler) RejectRequests(c *fiber.Ctx) error {
	return h.decideRequests(c, h.subs.Reject, "rejected")
}

func (h *PageHandler) decideRequests(c *fiber.Ctx, decide func(*models.User, *models.Page, []uuid.UUID) (int, error), outcome string) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	var req dto.SubscriptionDecisionRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	n, err := decide(actor, page, req.UserIDs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{outcome: n})
}

func (h *PageHandler) Followers(c *fiber.Ctx) error {
	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	users, err := h.subs.Followers(page)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(followerResponses(users))
}

func (h *PageHandler) FollowRequests(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	page, err := h.page(c)
	if err != nil {
		return serviceError(c, err)
	}

	users, err := h.subs.Requests(actor, page)
	if err != nil {
		if errors.Is(err, subscriptions.ErrNotPageOwner) {
			return forbidden(c, err.Error())
		}
		return serviceError(c, err)
	}
	return c.JSON(followerResponses(users))
}

func (h *PageHandler) page(c *fiber.Ctx) (*models.Page, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, services.ErrPageNotFound
	}
	return h.pageService.Get(id)
}

func followerResponses(users []models.User) []dto.FollowerResponse {
	out := make([]dto.FollowerResponse, len(users))
	for i, u := range users {
		out[i] = dto.FollowerResponse{ID: u.ID, Username: u.Username}
	}
	return out
}
