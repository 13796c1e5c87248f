package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// CapacityCacheInterface はイベント残り枠キャッシュのインターフェース
type CapacityCacheInterface interface {
	GetRemaining(ctx context.Context, eventID string) (int, error)
	SetRemaining(ctx context.Context, eventID string, remaining int, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// CapacityCache はイベントの残り参加枠数のキャッシュを管理する
// イベント一覧や詳細表示の読み取り負荷を下げるためのもので、
// 登録可否の最終判定には使用しない
type CapacityCache struct {
	client *redis.Client
}

// NewCapacityCache は新しいCapacityCacheインスタンスを作成する
func NewCapacityCache(client *redis.Client) *CapacityCache {
	return &CapacityCache{client: client}
}

// GetRemaining はイベントの残り枠数をキャッシュから取得する
func (c *CapacityCache) GetRemaining(ctx context.Context, eventID string) (int, error) {
	key := c.remainingKey(eventID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetRemaining はイベントの残り枠数をキャッシュに保存する
func (c *CapacityCache) SetRemaining(ctx context.Context, eventID string, remaining int, ttl time.Duration) error {
	key := c.remainingKey(eventID)
	if err := c.client.Set(ctx, key, remaining, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
func (c *CapacityCache) Invalidate(ctx context.Context, eventID string) error {
	key := c.remainingKey(eventID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *CapacityCache) remainingKey(eventID string) string {
	return fmt.Sprintf("events:remaining:%s", eventID)
}

var _ CapacityCacheInterface = (*CapacityCache)(nil)
