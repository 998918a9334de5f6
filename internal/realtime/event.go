package realtime

import (
	"fmt"
	"strings"
	"time"
)

// EventType 行变更类型
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// ChangeEvent 一条表级行变更；Old 仅 UPDATE/DELETE 时有值
type ChangeEvent struct {
	Table      string         `json:"table"`
	Type       EventType      `json:"type"`
	Old        map[string]any `json:"old,omitempty"`
	New        map[string]any `json:"new,omitempty"`
	CommitTime time.Time      `json:"commitTime"`
}

// Row DELETE 看旧行，其余看新行
func (e ChangeEvent) Row() map[string]any {
	if e.Type == EventDelete {
		return e.Old
	}
	return e.New
}

// Filter 行级等值过滤（托管端 "column=eq.value" 的等价物）；零值表示不过滤
type Filter struct {
	Column string
	Value  string
}

// ParseFilter 解析 "status=completed" 或 "status=eq.completed"
func ParseFilter(expr string) (Filter, error) {
	if expr == "" {
		return Filter{}, nil
	}
	col, val, ok := strings.Cut(expr, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("realtime: bad filter %q", expr)
	}
	val = strings.TrimPrefix(val, "eq.")
	return Filter{Column: col, Value: val}, nil
}

func (f Filter) Empty() bool { return f.Column == "" }

// Match 按行的列值做字符串等值比较
func (f Filter) Match(e ChangeEvent) bool {
	if f.Empty() {
		return true
	}
	row := e.Row()
	if row == nil {
		return false
	}
	v, ok := row[f.Column]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
