package models

// TaskMessage is in-task coordination between requester and assigned doer.
// Bodies are stored after contact-information redaction; the raw text is
// never persisted.
type TaskMessage struct {
	BaseModel
	TaskID   string `gorm:"type:uuid;not null;index" json:"task_id"`
	SenderID string `gorm:"type:uuid;not null;index" json:"sender_id"`
	Body     string `gorm:"not null" json:"body"`
	Redacted bool   `gorm:"not null;default:false" json:"redacted"`
}
