package domain

import (
	"context"
	"time"
)

// Provider 外部认证方式
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	ProviderKakao    Provider = "kakao"
	ProviderNaver    Provider = "naver"
)

// Identity 外部认证主体；本系统只读（除登录时间等元数据刷新）
type Identity struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Provider Provider `json:"provider"`
	Name     string   `json:"name,omitempty"`
}

// Profile 与 Identity 一对一的用户资料
type Profile struct {
	ID          string     `json:"id"` // = Identity.ID
	DisplayName string     `json:"displayName"`
	Department  string     `json:"department,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProfilePatch 部分更新；nil 字段不动
type ProfilePatch struct {
	DisplayName *string
	Department  *string
	Bio         *string
	AvatarURL   *string
}

// RoleAssignment 一条角色授予记录；一个身份可同时持有多条
type RoleAssignment struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identityId"`
	Role       string     `json:"role"` // user / moderator / admin / super_admin
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	GrantedBy  string     `json:"grantedBy,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Match 比赛记录
type Match struct {
	ID        string     `json:"id"`
	HomeTeam  string     `json:"homeTeam"`
	AwayTeam  string     `json:"awayTeam"`
	Status    string     `json:"status"` // scheduled / in_progress / completed
	HomeScore int        `json:"homeScore"`
	AwayScore int        `json:"awayScore"`
	PlayedAt  *time.Time `json:"playedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

const (
	MatchScheduled  = "scheduled"
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	Update(ctx context.Context, id string, patch ProfilePatch) (*Profile, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type RoleAssignmentRepository interface {
	// ListByIdentity 对未知身份返回空列表而非错误
	ListByIdentity(ctx context.Context, identityID string) ([]RoleAssignment, error)
	Grant(ctx context.Context, ra *RoleAssignment) error
	Revoke(ctx context.Context, id string) error
}

type MatchRepository interface {
	FindByID(ctx context.Context, id string) (*Match, error)
	List(ctx context.Context, offset, limit int) ([]Match, int64, error)
	Create(ctx context.Context, m *Match) error
	Complete(ctx context.Context, id string, homeScore, awayScore int) (*Match, error)
}
