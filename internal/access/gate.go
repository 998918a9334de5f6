package access

import (
	"time"

	"go-league-core/internal/rbac"
	"go-league-core/internal/session"
)

// Decision 门禁三态
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionDenied
	DecisionGranted
)

func (d Decision) String() string {
	switch d {
	case DecisionDenied:
		return "denied"
	case DecisionGranted:
		return "granted"
	default:
		return "loading"
	}
}

type Outcome struct {
	Decision   Decision
	RedirectTo string // 仅 Denied 时有值
}

// Gate (会话状态, 角色快照, 所需角色) 的纯函数，自己不做任何拉取
type Gate struct {
	Fallback string // 拒绝时跳转的入口地址
}

func NewGate(fallback string) Gate {
	if fallback == "" {
		fallback = "/auth/login"
	}
	return Gate{Fallback: fallback}
}

// Decide 首个快照未解析 → Loading（渲染中性加载态，不跳转）；
// 已解析且 HasRole 不通过（含未登录）→ Denied + 跳转；否则 Granted。
// 注意：没有任何授予记录的身份对 required=user 也是 Denied。
func (g Gate) Decide(snap session.Snapshot, required rbac.Role, now time.Time) Outcome {
	if snap.State == session.Loading || !snap.Resolved {
		return Outcome{Decision: DecisionLoading}
	}
	if snap.State != session.SignedIn || !snap.Roles.HasRole(required, now) {
		return Outcome{Decision: DecisionDenied, RedirectTo: g.Fallback}
	}
	return Outcome{Decision: DecisionGranted}
}

// CanRender 渐进披露用的条件渲染判断：只看 HasRole，不跳转。
// 公共页面里的管理员控件按这个显隐。
func CanRender(snap session.Snapshot, required rbac.Role, now time.Time) bool {
	return snap.State == session.SignedIn && snap.Roles.HasRole(required, now)
}
