package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelSubscriptionChanges = "subscription_changes"
)

// 消息类型常量
const (
	TypeSubscriptionChange = "subscription_change"
	TypeProfileChange      = "profile_change"
)

// 变更来源常量
const (
	SourcePayment = "payment"
	SourceAdmin   = "admin"
	SourceSweep   = "expiry_sweep"
	SourceProfile = "profile"
)

// ChangeMessage 订阅/用户资料变更通知，管理端据此刷新概览
type ChangeMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Status string `json:"status,omitempty"`
	Source string `json:"source"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishChange 发布变更消息，未指定类型时默认为订阅变更
func (p *Publisher) PublishChange(ctx context.Context, msg *ChangeMessage) error {
	if msg.Type == "" {
		msg.Type = TypeSubscriptionChange
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change message: %w", err)
	}

	return p.client.Publish(ctx, ChannelSubscriptionChanges, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅变更消息，ctx 取消时退出并注销订阅
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ChangeMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelSubscriptionChanges)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var changeMsg ChangeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &changeMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&changeMsg)
		}
	}
}
