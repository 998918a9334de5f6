package realtime

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-league-core/internal/notify"
)

var notifAdded = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "notifications_added_total", Help: "Notifications appended from change events"},
	[]string{"type"},
)

func init() { prometheus.MustRegister(notifAdded) }

// Notifier 把合格的变更事件翻译成通知。一个挂载的消费方一个实例，
// 实例之间只通过 Queue 共享。
type Notifier struct {
	hub   *Hub
	queue *notify.Queue
	subs  []*Subscription
	log   *zap.Logger
}

func NewNotifier(hub *Hub, queue *notify.Queue, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, queue: queue, log: log}
}

// Mount 打开本消费方关心的全部通道：
//   - matches INSERT                         → match_created
//   - matches UPDATE (status=completed)      → match_result
//   - standings UPDATE                       → standings_updated
//   - playoffs 任意事件                       → playoff_updated
func (n *Notifier) Mount() {
	n.subs = append(n.subs,
		n.hub.Subscribe("matches", []EventType{EventInsert}, Filter{}, n.onMatchCreated),
		n.hub.Subscribe("matches", []EventType{EventUpdate}, Filter{Column: "status", Value: "completed"}, n.onMatchResult),
		n.hub.Subscribe("standings", []EventType{EventUpdate}, Filter{}, n.onStandings),
		n.hub.Subscribe("playoffs", []EventType{EventAll}, Filter{}, n.onPlayoff),
	)
}

// Release 释放全部句柄；每个句柄恰好释放一次
func (n *Notifier) Release() {
	for _, s := range n.subs {
		s.Release()
	}
	n.subs = nil
}

func (n *Notifier) onMatchCreated(evt ChangeEvent) {
	n.add(notify.TypeMatchCreated, "Match scheduled",
		fmt.Sprintf("%s vs %s", str(evt.New, "home_team"), str(evt.New, "away_team")))
}

func (n *Notifier) onMatchResult(evt ChangeEvent) {
	n.add(notify.TypeMatchResult, "Match result",
		fmt.Sprintf("%s %v : %v %s",
			str(evt.New, "home_team"), evt.New["home_score"],
			evt.New["away_score"], str(evt.New, "away_team")))
}

func (n *Notifier) onStandings(evt ChangeEvent) {
	n.add(notify.TypeStandingsUpdated, "Standings updated", "League standings have been refreshed")
}

func (n *Notifier) onPlayoff(evt ChangeEvent) {
	n.add(notify.TypePlayoffUpdated, "Playoff bracket", "Playoff bracket has been updated")
}

func (n *Notifier) add(typ notify.Type, title, msg string) {
	n.queue.Add(typ, title, msg)
	notifAdded.WithLabelValues(string(typ)).Inc()
	n.log.Debug("notification added", zap.String("type", string(typ)))
}

func str(row map[string]any, key string) string {
	if row == nil {
		return ""
	}
	if v, ok := row[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}
