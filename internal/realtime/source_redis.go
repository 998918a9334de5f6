package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher 变更事件的发布边界：业务写操作完成后调用
type Publisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
}

// RedisSource 以 redis pub/sub 为外部变更通道：每张表一个
// "<prefix><table>" 频道。断线后 handler 静默停止，重连是客户端库的事，
// 这里不做退避重试；投递语义为至多一次。
type RedisSource struct {
	rdb    *redis.Client
	hub    *Hub
	prefix string
	log    *zap.Logger
}

func NewRedisSource(rdb *redis.Client, hub *Hub, prefix string, log *zap.Logger) *RedisSource {
	if prefix == "" {
		prefix = "realtime:"
	}
	return &RedisSource{rdb: rdb, hub: hub, prefix: prefix, log: log}
}

// Publish 把事件广播到对应表频道（跨实例扇出；本实例同样经 Run 收回）
func (s *RedisSource) Publish(ctx context.Context, evt ChangeEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.prefix+evt.Table, b).Err()
}

// Run 订阅给定表的频道并把消息转为 Hub 事件，ctx 结束时退出。
// 进程启动时调一次（go source.Run(...)）。
func (s *RedisSource) Run(ctx context.Context, tables ...string) {
	channels := make([]string, 0, len(tables))
	for _, t := range tables {
		channels = append(channels, s.prefix+t)
	}
	ps := s.rdb.Subscribe(ctx, channels...)
	defer func() { _ = ps.Close() }()

	s.log.Info("realtime source started", zap.Strings("channels", channels))
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				s.log.Warn("drop malformed change event",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			s.hub.Publish(evt)
		}
	}
}
