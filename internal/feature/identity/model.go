package identity

import (
	"time"
)

type IdentityModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Provider     string `gorm:"size:16;not null;default:password"`
	Name         string `gorm:"size:64"`
	PasswordHash string `gorm:"size:100"` // 仅 password 方式使用

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (IdentityModel) TableName() string { return "identities" }
