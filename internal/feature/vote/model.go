package vote

import (
	"time"
)

// ChampionVoteModel 冠军投票，一人一票（owner 维度）
type ChampionVoteModel struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID string `gorm:"uniqueIndex;type:varchar(36);not null" json:"ownerId"`
	Team    string `gorm:"size:64;not null" json:"team"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ChampionVoteModel) TableName() string { return "champion_votes" }
