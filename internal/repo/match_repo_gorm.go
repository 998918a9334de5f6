package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-league-core/internal/domain"
	"go-league-core/internal/feature/match"
)

type MatchRepo struct{ db *gorm.DB }

func NewMatchRepo(db *gorm.DB) *MatchRepo { return &MatchRepo{db: db} }

func (r *MatchRepo) FindByID(ctx context.Context, id string) (*domain.Match, error) {
	var m match.MatchModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toMatch(&m), nil
}

func (r *MatchRepo) List(ctx context.Context, offset, limit int) ([]domain.Match, int64, error) {
	tx := r.db.WithContext(ctx).Model(&match.MatchModel{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ms []match.MatchModel
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Match, 0, len(ms))
	for i := range ms {
		out = append(out, *toMatch(&ms[i]))
	}
	return out, total, nil
}

func (r *MatchRepo) Create(ctx context.Context, m *domain.Match) error {
	row := match.MatchModel{
		ID:       m.ID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Status:   m.Status,
		PlayedAt: m.PlayedAt,
	}
	if row.Status == "" {
		row.Status = domain.MatchScheduled
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	m.Status = row.Status
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

// Complete 录入比分并置 completed，返回更新后的行
func (r *MatchRepo) Complete(ctx context.Context, id string, homeScore, awayScore int) (*domain.Match, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&match.MatchModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.MatchCompleted,
			"home_score": homeScore,
			"away_score": awayScore,
			"played_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func toMatch(m *match.MatchModel) *domain.Match {
	return &domain.Match{
		ID:        m.ID,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		Status:    m.Status,
		HomeScore: m.HomeScore,
		AwayScore: m.AwayScore,
		PlayedAt:  m.PlayedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
