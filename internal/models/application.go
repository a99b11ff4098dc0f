package models

type TaskApplication struct {
	BaseModel
	TaskID  string            `gorm:"type:uuid;not null;index:idx_app_task_doer,unique" json:"task_id"`
	DoerID  string            `gorm:"type:uuid;not null;index:idx_app_task_doer,unique" json:"doer_id"`
	Message string            `json:"message"`
	Status  ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}
