package match

import (
	"time"

	"gorm.io/gorm"
)

type MatchModel struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	HomeTeam  string `gorm:"size:64;not null"`
	AwayTeam  string `gorm:"size:64;not null"`
	Status    string `gorm:"size:16;not null;default:scheduled;index"`
	HomeScore int    `gorm:"not null;default:0"`
	AwayScore int    `gorm:"not null;default:0"`
	PlayedAt  *time.Time

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (MatchModel) TableName() string { return "matches" }
