package roles

import (
	"time"
)

// RoleAssignmentModel 一条授予记录；expires_at 为空表示永久
type RoleAssignmentModel struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	IdentityID string `gorm:"index;type:varchar(36);not null"`
	Role       string `gorm:"size:16;not null"`
	ExpiresAt  *time.Time
	GrantedBy  string `gorm:"type:varchar(36)"`
	Reason     string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoleAssignmentModel) TableName() string { return "role_assignments" }
