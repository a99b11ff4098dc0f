package models

import "time"

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FirstName    string     `gorm:"not null" json:"first_name"`
	LastName     string     `gorm:"not null" json:"last_name"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// TrustLevel is the persisted result of the last trust evaluation.
	// AdminApprovedTier3 is the explicit, separately-revocable admin
	// sign-off required for tier 3; it is an input to the evaluator, not
	// something the evaluator computes.
	TrustLevel         int  `gorm:"not null;default:0" json:"trust_level"`
	AdminApprovedTier3 bool `gorm:"not null;default:false" json:"-"`

	ProviderCustomerID *string    `json:"-"` // payment provider customer ref
	ProviderPayoutID   *string    `json:"-"` // payment provider payout destination
	SuspendedAt        *time.Time `json:"-"`
}

// AccountAgeDays is measured from registration to now.
func (u *User) AccountAgeDays(now time.Time) int {
	return int(now.Sub(u.CreatedAt).Hours() / 24)
}

// PublicProfile is the subset of User exposed to other users.
type PublicProfile struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	TrustLevel int       `json:"trust_level"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		TrustLevel: u.TrustLevel,
		CreatedAt:  u.CreatedAt,
	}
}
