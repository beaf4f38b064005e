package dto

import "github.com/google/uuid"

type CreatePageRequest struct {
	Name        string   `json:"name" validate:"required,max=80"`
	Description string   `json:"description"`
	IsPrivate   bool     `json:"is_private"`
	Tags        []string `json:"tags" validate:"dive,required,max=30"`
}

type ModifyTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required,max=30"`
}

type SubscriptionDecisionRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" validate:"required,min=1"`
}

type SubscriptionResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

type FollowerResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
