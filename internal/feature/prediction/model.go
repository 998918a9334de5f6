package prediction

import (
	"time"
)

// PredictionModel 用户对单场比赛的比分预测（owner 维度的 CRUD）
type PredictionModel struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID       string `gorm:"index;type:varchar(36);not null" json:"ownerId"`
	MatchID       string `gorm:"index;type:varchar(36);not null" json:"matchId"`
	PredictedHome int    `gorm:"not null;default:0" json:"predictedHome"`
	PredictedAway int    `gorm:"not null;default:0" json:"predictedAway"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (PredictionModel) TableName() string { return "predictions" }
