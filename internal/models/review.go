package models

// Review is one party's rating of the other after a completed task. Four
// dimensions, each 1-5. A review is "positive" when every dimension is >= 3;
// that definition feeds the positive-review rate in the reputation summary.
type Review struct {
	BaseModel
	TaskID        string `gorm:"type:uuid;not null;index:idx_review_task_reviewer,unique" json:"task_id"`
	ReviewerID    string `gorm:"type:uuid;not null;index:idx_review_task_reviewer,unique" json:"reviewer_id"`
	RevieweeID    string `gorm:"type:uuid;not null;index" json:"reviewee_id"`
	Reliability   int    `gorm:"not null;check:reliability >= 1 AND reliability <= 5" json:"reliability"`
	Quality       int    `gorm:"not null;check:quality >= 1 AND quality <= 5" json:"quality"`
	Communication int    `gorm:"not null;check:communication >= 1 AND communication <= 5" json:"communication"`
	Integrity     int    `gorm:"not null;check:integrity >= 1 AND integrity <= 5" json:"integrity"`
	Comment       string `json:"comment"`
}

// IsPositive reports whether every dimension scored at least 3.
func (r *Review) IsPositive() bool {
	return r.Reliability >= 3 && r.Quality >= 3 && r.Communication >= 3 && r.Integrity >= 3
}
