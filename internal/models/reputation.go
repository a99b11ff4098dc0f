package models

import "time"

// ReputationSummary is the aggregated, read-only view of a user's history.
// It is recomputed by the reputation service after completions, reviews, and
// dispute resolutions; the trust evaluator consumes it and never mutates it.
type ReputationSummary struct {
	UserID             string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalCompleted     int       `gorm:"not null;default:0" json:"total_completed"`
	CancelledAsDoer    int       `gorm:"not null;default:0" json:"cancelled_as_doer"`
	DisputesLost       int       `gorm:"not null;default:0" json:"disputes_lost"`
	CompletionRate     float64   `gorm:"not null;default:0" json:"completion_rate"`
	AvgReliability     float64   `gorm:"not null;default:0" json:"avg_reliability"`
	AvgQuality         float64   `gorm:"not null;default:0" json:"avg_quality"`
	AvgCommunication   float64   `gorm:"not null;default:0" json:"avg_communication"`
	AvgIntegrity       float64   `gorm:"not null;default:0" json:"avg_integrity"`
	ReviewCount        int       `gorm:"not null;default:0" json:"review_count"`
	PositiveReviewRate float64   `gorm:"not null;default:0" json:"positive_review_rate"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReputationSummary) TableName() string { return "reputation_summary" }
