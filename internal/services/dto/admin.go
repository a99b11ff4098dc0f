package dto

type SetUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended banned"`
}

type SetTier3ApprovalRequest struct {
	Approved bool `json:"approved"`
}
