package auth

import "time"

// Tier is the account's subscription class. It determines the storage
// ceiling applied to media uploads.
type Tier string

const (
	TierFree     Tier = "free"
	TierPersonal Tier = "personal"
	TierPro      Tier = "pro"
)

// ValidTier reports whether t is a known subscription tier.
func ValidTier(t Tier) bool {
	switch t {
	case TierFree, TierPersonal, TierPro:
		return true
	}
	return false
}

// User is an account that owns timeline entries and their attachments.
// StorageUsedMB tracks the total size of completed attachments and is
// mutated only by the media accounting service.
type User struct {
	ID            int64     `gorm:"column:id;primaryKey" json:"id"`
	Email         string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash;not null" json:"-"`
	Name          string    `gorm:"column:name" json:"name"`
	Tier          Tier      `gorm:"column:tier;type:varchar(16);not null;default:free" json:"tier"`
	StorageUsedMB float64   `gorm:"column:storage_used_mb;not null;default:0" json:"storage_used_mb"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
