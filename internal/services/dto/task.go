package dto

import (
	"time"

	"taskmarket_backend/internal/models"
)

type CreateTaskRequest struct {
	Title           string  `json:"title" validate:"required,min=3,max=200"`
	Description     string  `json:"description" validate:"required,min=10,max=5000"`
	Category        string  `json:"category" validate:"required,max=50"`
	LocationType    string  `json:"location_type" validate:"required,is-location-type"`
	LocationAddress *string `json:"location_address,omitempty" validate:"omitempty,max=500"`
	PriceCents      int64   `json:"price_cents" validate:"required,min=1"`
	Deadline        time.Time `json:"deadline" validate:"required"`
}

type UpdateTaskRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,min=10,max=5000"`
	Category        *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	LocationAddress *string    `json:"location_address,omitempty" validate:"omitempty,max=500"`
	PriceCents      *int64     `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	Deadline        *time.Time `json:"deadline,omitempty"`
}

type TaskFilterRequest struct {
	Category     string `form:"category"`
	LocationType string `form:"location_type" validate:"omitempty,is-location-type"`
	MinPrice     int64  `form:"min_price"`
	MaxPrice     int64  `form:"max_price"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset       int    `form:"offset" validate:"omitempty,min=0"`
}

type AssignDoerRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid"`
}

type DisputeTaskRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=2000"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=release refund"`
	Note    string `json:"note" validate:"omitempty,max=2000"`
}

type ModerateTaskRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason" validate:"omitempty,max=1000"`
}

// TaskResponse pairs a task with its fee breakdown so clients never
// recompute money amounts.
type TaskResponse struct {
	Task *models.Task        `json:"task"`
	Fees models.FeeBreakdown `json:"fees"`
}

func NewTaskResponse(t *models.Task) *TaskResponse {
	return &TaskResponse{
		Task: t,
		Fees: models.CalculateFees(t.PriceCents),
	}
}
