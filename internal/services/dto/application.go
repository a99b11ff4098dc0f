package dto

type ApplyRequest struct {
	Message string `json:"message" validate:"omitempty,max=2000"`
}
