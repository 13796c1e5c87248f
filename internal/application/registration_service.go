package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
	redisinfra "github.com/campushq/go-campus-ticketing/internal/infrastructure/redis"
	"github.com/campushq/go-campus-ticketing/internal/pkg/metrics"
)

const (
	registrationLockTTL = 10 * time.Second
	lockMaxRetries      = 3
	lockRetryDelay      = 100 * time.Millisecond
)

type RegistrationService struct {
	txManager   transaction.Manager
	regRepo     registration.Repository
	eventRepo   event.Repository
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.CapacityCacheInterface
}

func NewRegistrationService(
	txManager transaction.Manager,
	regRepo registration.Repository,
	eventRepo event.Repository,
	lockManager redisinfra.LockManagerInterface,
	cache redisinfra.CapacityCacheInterface,
) *RegistrationService {
	return &RegistrationService{
		txManager:   txManager,
		regRepo:     regRepo,
		eventRepo:   eventRepo,
		lockManager: lockManager,
		cache:       cache,
	}
}

type RegisterInput struct {
	UserID  string
	EventID string
	// PaymentCompleted は外部の決済コラボレーターから通知された完了シグナル
	// 本システムはこの値を検証せずに信頼する
	PaymentCompleted bool
}

// Register はイベントへの参加登録を作成する
// 定員チェックと登録作成は単一トランザクション内の条件付きUPDATEで行われ、
// 並行リクエスト下でもオーバーセルと二重登録は発生しない
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*registration.Registration, error) {
	// 事前チェック（最終判定はトランザクション内の一意制約）
	existing, err := s.regRepo.GetActiveByUserAndEvent(ctx, input.UserID, input.EventID)
	if err == nil && existing != nil {
		s.countRegistration("duplicate")
		return nil, registration.ErrAlreadyRegistered
	}
	if err != nil && !errors.Is(err, registration.ErrRegistrationNotFound) {
		return nil, fmt.Errorf("重複チェックに失敗: %w", err)
	}

	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		s.countRegistration("error")
		return nil, err
	}
	if !ev.IsOpenForRegistration() {
		return nil, event.ErrEventNotOpen
	}

	// 有料イベントは決済完了シグナルが前提条件
	if !ev.IsFree() && !input.PaymentCompleted {
		return nil, registration.ErrPaymentNotConfirmed
	}

	reg := registration.NewRegistration(input.UserID, input.EventID, registration.PaymentCompleted)
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	// 分散ロックで同一ユーザーの二重送信を弾く（競合の最終防衛は一意制約）
	if s.lockManager != nil {
		lockKey := fmt.Sprintf("register:%s:%s", input.EventID, input.UserID)
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, registrationLockTTL, lockMaxRetries, lockRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, registration.ErrAlreadyRegistered
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 枠の確保と登録作成は同一のアトミック単位
	if err := s.eventRepo.ReserveSlot(ctx, tx, input.EventID); err != nil {
		if errors.Is(err, event.ErrEventFull) {
			s.countRegistration("event_full")
		}
		return nil, err
	}
	if err := s.regRepo.Create(ctx, tx, reg); err != nil {
		if errors.Is(err, registration.ErrAlreadyRegistered) {
			s.countRegistration("duplicate")
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countRegistration("success")
	s.invalidateCache(ctx, input.EventID)
	return reg, nil
}

// UserRegistration は参加登録とイベントの読み取り結合結果
type UserRegistration struct {
	Registration *registration.Registration
	Event        *event.Event
}

// ListUserRegistrations はユーザーの参加登録一覧をイベント情報付きで返す
// 登録日時の降順で、イベントが削除済みの登録は除外される
func (s *RegistrationService) ListUserRegistrations(ctx context.Context, userID string, limit, offset int) ([]*UserRegistration, error) {
	if limit <= 0 {
		limit = 20
	}
	regs, err := s.regRepo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return []*UserRegistration{}, nil
	}

	eventIDs := make([]string, 0, len(regs))
	for _, reg := range regs {
		eventIDs = append(eventIDs, reg.EventID)
	}
	events, err := s.eventRepo.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	result := make([]*UserRegistration, 0, len(regs))
	for _, reg := range regs {
		ev, ok := events[reg.EventID]
		if !ok {
			continue
		}
		result = append(result, &UserRegistration{Registration: reg, Event: ev})
	}
	return result, nil
}

func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (*registration.Registration, error) {
	return s.regRepo.GetByID(ctx, id)
}

func (s *RegistrationService) countRegistration(status string) {
	if m := metrics.Get(); m != nil {
		m.RegistrationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *RegistrationService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, eventID)
	}
}
