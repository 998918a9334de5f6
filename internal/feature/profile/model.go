package profile

import (
	"time"

	"gorm.io/gorm"
)

// ProfileModel 与 identities 一对一；登录时自动补建（外部触发器的等价物）
type ProfileModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"` // = identities.id
	DisplayName string `gorm:"size:64;not null"`
	Department  string `gorm:"size:64"`
	Bio         string `gorm:"size:500"`
	AvatarURL   string `gorm:"size:255"`
	IsActive    bool   `gorm:"not null;default:true"`
	LastLoginAt *time.Time

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ProfileModel) TableName() string { return "profiles" }
