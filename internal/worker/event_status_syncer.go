package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/go-campus-ticketing/internal/pkg/logger"
)

// StatusSyncer は開催スケジュールに応じてイベントステータスを遷移させるインターフェース
type StatusSyncer interface {
	SyncEventStatuses(ctx context.Context) (int, error)
}

// EventStatusSyncer はイベントステータスを定期的に同期するワーカー
// upcoming→live、live→ended の遷移を開始・終了時刻に基づいて行う
type EventStatusSyncer struct {
	eventService StatusSyncer
	interval     time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewEventStatusSyncer は新しいシンカーを作成
func NewEventStatusSyncer(es StatusSyncer, interval time.Duration) *EventStatusSyncer {
	return &EventStatusSyncer{
		eventService: es,
		interval:     interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start はシンカーを開始
func (s *EventStatusSyncer) Start(ctx context.Context) {
	logger.Info("イベントステータスシンカー開始",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("イベントステータスシンカー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("イベントステータスシンカー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sync(ctx)
		}
	}
}

// Stop はシンカーを停止
func (s *EventStatusSyncer) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sync はステータス遷移を1回実行する
func (s *EventStatusSyncer) sync(ctx context.Context) {
	log := logger.Get()
	log.Debug("イベントステータス同期開始")

	count, err := s.eventService.SyncEventStatuses(ctx)
	if err != nil {
		log.Error("イベントステータス同期失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("イベントステータスを遷移", zap.Int("count", count))
	} else {
		log.Debug("遷移対象のイベントなし")
	}
}
