package dto

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}
