package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-league-core/internal/domain"
	"go-league-core/internal/feature/profile"
)

type ProfileRepo struct{ db *gorm.DB }

func NewProfileRepo(db *gorm.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var m profile.ProfileModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toProfile(&m), nil
}

// Update 部分更新后重查，返回服务端行（快照以它为准，不做本地合并）
func (r *ProfileRepo) Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	values := map[string]any{}
	if patch.DisplayName != nil {
		values["display_name"] = *patch.DisplayName
	}
	if patch.Department != nil {
		values["department"] = *patch.Department
	}
	if patch.Bio != nil {
		values["bio"] = *patch.Bio
	}
	if patch.AvatarURL != nil {
		values["avatar_url"] = *patch.AvatarURL
	}
	if len(values) > 0 {
		res := r.db.WithContext(ctx).Model(&profile.ProfileModel{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	var m profile.ProfileModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toProfile(&m), nil
}

func (r *ProfileRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&profile.ProfileModel{}).
		Where("id = ?", id).Update("last_login_at", at).Error
}

func toProfile(m *profile.ProfileModel) *domain.Profile {
	return &domain.Profile{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Department:  m.Department,
		Bio:         m.Bio,
		AvatarURL:   m.AvatarURL,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
