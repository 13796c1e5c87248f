package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	redisinfra "github.com/campushq/go-campus-ticketing/internal/infrastructure/redis"
	"github.com/campushq/go-campus-ticketing/internal/pkg/logger"
)

const capacityCacheTTL = 30 * time.Second

type EventService struct {
	eventRepo event.Repository
	cache     redisinfra.CapacityCacheInterface
}

func NewEventService(eventRepo event.Repository, cache redisinfra.CapacityCacheInterface) *EventService {
	return &EventService{eventRepo: eventRepo, cache: cache}
}

type CreateEventInput struct {
	Title       string
	Description string
	Type        event.Type
	Venue       string
	College     string
	OrganizerID string
	StartAt     time.Time
	EndAt       time.Time
	Price       int
	Capacity    int
	Tags        []string
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(
		input.Title, input.Description, input.Type,
		input.Venue, input.College, input.OrganizerID,
		input.StartAt, input.EndAt, input.Price, input.Capacity, input.Tags,
	)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.eventRepo.List(ctx, filter)
}

type UpdateEventInput struct {
	ID          string
	Title       string
	Description string
	Type        event.Type
	Venue       string
	College     string
	StartAt     time.Time
	EndAt       time.Time
	Price       int
	Capacity    int
	Status      event.Status
	Tags        []string
}

func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	e.Title = input.Title
	e.Description = input.Description
	e.Type = input.Type
	e.Venue = input.Venue
	e.College = input.College
	e.StartAt = input.StartAt
	e.EndAt = input.EndAt
	e.Price = input.Price
	e.Capacity = input.Capacity
	e.Status = input.Status
	e.Tags = input.Tags
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, e.ID)
	return e, nil
}

// GetRemainingCapacity はイベントの残り参加枠数を返す
// 表示用の値でありキャッシュされる。登録可否の最終判定には使用しない
func (s *EventService) GetRemainingCapacity(ctx context.Context, eventID string) (int, error) {
	if s.cache != nil {
		remaining, err := s.cache.GetRemaining(ctx, eventID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("event_id", eventID), zap.Int("remaining", remaining))
			return remaining, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	remaining := e.RemainingCapacity()

	if s.cache != nil {
		if cacheErr := s.cache.SetRemaining(ctx, eventID, remaining, capacityCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}
	return remaining, nil
}

// SyncEventStatuses は開催スケジュールに応じてイベントステータスを遷移させる
// ワーカーから定期的に呼ばれる
func (s *EventService) SyncEventStatuses(ctx context.Context) (int, error) {
	return s.eventRepo.SyncStatuses(ctx, time.Now())
}

func (s *EventService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}
