package dto

type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=180"`
}

type UpdatePostRequest struct {
	Content string `json:"content" validate:"required,max=180"`
}
