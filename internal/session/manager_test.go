package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-league-core/internal/domain"
	"go-league-core/internal/rbac"
)

type fakeProfiles struct {
	mu        sync.Mutex
	profiles  map[string]*domain.Profile
	findErr   error
	updateErr error
	touchErr  error
	touched   []string
	onFind    func(id string) // FindByID 返回前的钩子，用于制造竞态
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]*domain.Profile{}}
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	if f.onFind != nil {
		f.onFind(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.profiles[id], nil
}

func (f *fakeProfiles) Update(_ context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p := *f.profiles[id]
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	p.UpdatedAt = time.Now()
	f.profiles[id] = &p
	return &p, nil
}

func (f *fakeProfiles) TouchLastLogin(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	return nil
}

type fakeRoles struct {
	sets map[string]rbac.Set
	err  error
}

func (f *fakeRoles) FetchRoles(_ context.Context, id string) (rbac.Set, error) {
	if f.err != nil {
		return rbac.Set{}, f.err
	}
	return f.sets[id], nil
}

func ident(id string) *domain.Identity {
	return &domain.Identity{ID: id, Email: id + "@league.local", Provider: domain.ProviderPassword}
}

func grantOf(role rbac.Role) rbac.Grant {
	return rbac.Grant{Role: role}
}

func TestEstablishSignsInWithProfileAndRoles(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1", DisplayName: "Alice"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleAdmin)}}}
	m := NewManager(profiles, roles, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))

	snap := m.Snapshot()
	require.Equal(t, SignedIn, snap.State)
	assert.True(t, snap.Resolved)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Alice", snap.Profile.DisplayName)
	assert.True(t, snap.Roles.HasRole(rbac.RoleAdmin, time.Now()))
	assert.Equal(t, []string{"u1"}, profiles.touched)
}

// 资料拉取失败可容忍：仍然 SignedIn，Profile 为空
func TestEstablishToleratesProfileFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.findErr = errors.New("profiles unavailable")
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleUser)}}}
	m := NewManager(profiles, roles, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))

	snap := m.Snapshot()
	assert.Equal(t, SignedIn, snap.State)
	assert.Nil(t, snap.Profile)
	assert.True(t, snap.Roles.HasRole(rbac.RoleUser, time.Now()))
}

// 角色拉取失败降级为空角色集，不阻断登录
func TestEstablishDegradesOnRoleFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	roles := &fakeRoles{err: errors.New("rbac down")}
	m := NewManager(profiles, roles, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))

	snap := m.Snapshot()
	assert.Equal(t, SignedIn, snap.State)
	assert.False(t, snap.Roles.HasRole(rbac.RoleUser, time.Now()))
}

// 拉取途中登出：过期结果被丢弃，保持 SignedOut
func TestEstablishDiscardsStaleFetch(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	roles := &fakeRoles{sets: map[string]rbac.Set{}}
	m := NewManager(profiles, roles, zap.NewNop())
	profiles.onFind = func(string) { m.End() }

	m.Establish(context.Background(), ident("u1"))

	snap := m.Snapshot()
	assert.Equal(t, SignedOut, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Empty(t, profiles.touched, "过期会话不应再记录登录时间")
}

func TestEstablishNilIdentityNoop(t *testing.T) {
	m := NewManager(newFakeProfiles(), &fakeRoles{}, zap.NewNop())
	m.Establish(context.Background(), nil)
	assert.Equal(t, SignedOut, m.Snapshot().State)
}

func TestEndClearsSnapshot(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleAdmin)}}}
	m := NewManager(profiles, roles, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))
	m.End()

	snap := m.Snapshot()
	assert.Equal(t, SignedOut, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, snap.Roles)
	assert.True(t, snap.Resolved)
}

// token 续期不触发任何状态变化
func TestRefreshedKeepsSnapshot(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1", DisplayName: "Alice"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleUser)}}}
	m := NewManager(profiles, roles, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))
	before := m.Snapshot()
	m.Refreshed()
	after := m.Snapshot()

	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Profile, after.Profile)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	m := NewManager(newFakeProfiles(), &fakeRoles{}, zap.NewNop())
	name := "new name"
	_, err := m.UpdateProfile(context.Background(), domain.ProfilePatch{DisplayName: &name})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// 更新成功后快照整体替换为服务端返回的行
func TestUpdateProfileReplacesSnapshotRow(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1", DisplayName: "Alice", Bio: "old"}
	roles := &fakeRoles{sets: map[string]rbac.Set{}}
	m := NewManager(profiles, roles, zap.NewNop())
	m.Establish(context.Background(), ident("u1"))

	bio := "updated bio"
	p, err := m.UpdateProfile(context.Background(), domain.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "updated bio", p.Bio)
	assert.Equal(t, "Alice", p.DisplayName)
	assert.Equal(t, p, m.Snapshot().Profile)
}

func TestUpdateProfileFailurePropagates(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1", DisplayName: "Alice"}
	m := NewManager(profiles, &fakeRoles{}, zap.NewNop())
	m.Establish(context.Background(), ident("u1"))

	profiles.updateErr = errors.New("conflict")
	name := "x"
	_, err := m.UpdateProfile(context.Background(), domain.ProfilePatch{DisplayName: &name})
	assert.Error(t, err)
	// 失败不动快照
	assert.Equal(t, "Alice", m.Snapshot().Profile.DisplayName)
}

// RefreshRoles 传输失败：静默保留旧角色集
func TestRefreshRolesSilentOnFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleModerator)}}}
	m := NewManager(profiles, roles, zap.NewNop())
	m.Establish(context.Background(), ident("u1"))

	roles.err = errors.New("rbac down")
	m.RefreshRoles(context.Background())

	assert.True(t, m.Snapshot().Roles.HasRole(rbac.RoleModerator, time.Now()))
}

func TestRefreshRolesPicksUpNewGrant(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleUser)}}}
	m := NewManager(profiles, roles, zap.NewNop())
	m.Establish(context.Background(), ident("u1"))

	roles.sets["u1"] = rbac.Set{grantOf(rbac.RoleAdmin)}
	m.RefreshRoles(context.Background())

	assert.True(t, m.Snapshot().Roles.HasRole(rbac.RoleAdmin, time.Now()))
}

func TestRefreshSignedOutNoop(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.findErr = errors.New("must not be called")
	m := NewManager(profiles, &fakeRoles{err: errors.New("must not be called")}, zap.NewNop())

	m.RefreshProfile(context.Background())
	m.RefreshRoles(context.Background())
	assert.Equal(t, SignedOut, m.Snapshot().State)
}

// TouchLastLogin 失败只记日志，不影响登录结果
func TestEstablishTouchFailureTolerated(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1"}
	profiles.touchErr = errors.New("write failed")
	m := NewManager(profiles, &fakeRoles{sets: map[string]rbac.Set{}}, zap.NewNop())

	m.Establish(context.Background(), ident("u1"))
	assert.Equal(t, SignedIn, m.Snapshot().State)
}

func TestRunDispatchesEvents(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u1"] = &domain.Profile{ID: "u1", DisplayName: "Alice"}
	roles := &fakeRoles{sets: map[string]rbac.Set{"u1": {grantOf(rbac.RoleUser)}}}
	m := NewManager(profiles, roles, zap.NewNop())

	src := NewChanAuthEvents()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { m.Run(ctx, src); close(done) }()

	src.Establish(ident("u1"))
	require.Eventually(t, func() bool { return m.Snapshot().State == SignedIn }, time.Second, 5*time.Millisecond)

	src.End()
	require.Eventually(t, func() bool { return m.Snapshot().State == SignedOut }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on ctx cancel")
	}
}
