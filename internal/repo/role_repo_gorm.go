package repo

import (
	"context"

	"gorm.io/gorm"

	"go-league-core/internal/domain"
	"go-league-core/internal/feature/roles"
)

type RoleAssignmentRepo struct{ db *gorm.DB }

func NewRoleAssignmentRepo(db *gorm.DB) *RoleAssignmentRepo {
	return &RoleAssignmentRepo{db: db}
}

// ListByIdentity get_user_roles 的等价物：未知身份返回空列表，不报错
func (r *RoleAssignmentRepo) ListByIdentity(ctx context.Context, identityID string) ([]domain.RoleAssignment, error) {
	var ms []roles.RoleAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RoleAssignment, 0, len(ms))
	for _, m := range ms {
		out = append(out, domain.RoleAssignment{
			ID:         m.ID,
			IdentityID: m.IdentityID,
			Role:       m.Role,
			ExpiresAt:  m.ExpiresAt,
			GrantedBy:  m.GrantedBy,
			Reason:     m.Reason,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}

func (r *RoleAssignmentRepo) Grant(ctx context.Context, ra *domain.RoleAssignment) error {
	m := roles.RoleAssignmentModel{
		ID:         ra.ID,
		IdentityID: ra.IdentityID,
		Role:       ra.Role,
		ExpiresAt:  ra.ExpiresAt,
		GrantedBy:  ra.GrantedBy,
		Reason:     ra.Reason,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	ra.CreatedAt = m.CreatedAt
	return nil
}

func (r *RoleAssignmentRepo) Revoke(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&roles.RoleAssignmentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
