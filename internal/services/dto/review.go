package dto

type CreateReviewRequest struct {
	Reliability   int    `json:"reliability" validate:"required,min=1,max=5"`
	Quality       int    `json:"quality" validate:"required,min=1,max=5"`
	Communication int    `json:"communication" validate:"required,min=1,max=5"`
	Integrity     int    `json:"integrity" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"omitempty,max=2000"`
}
