package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
	"github.com/campushq/go-campus-ticketing/internal/domain/user"
	redisinfra "github.com/campushq/go-campus-ticketing/internal/infrastructure/redis"
	"github.com/campushq/go-campus-ticketing/internal/pkg/logger"
	"github.com/campushq/go-campus-ticketing/internal/pkg/metrics"
)

const checkinLockTTL = 5 * time.Second

type CheckinService struct {
	txManager   transaction.Manager
	ticketRepo  ticket.Repository
	regRepo     registration.Repository
	eventRepo   event.Repository
	userRepo    user.Repository
	lockManager redisinfra.LockManagerInterface
}

func NewCheckinService(
	txManager transaction.Manager,
	ticketRepo ticket.Repository,
	regRepo registration.Repository,
	eventRepo event.Repository,
	userRepo user.Repository,
	lockManager redisinfra.LockManagerInterface,
) *CheckinService {
	return &CheckinService{
		txManager:   txManager,
		ticketRepo:  ticketRepo,
		regRepo:     regRepo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		lockManager: lockManager,
	}
}

// VerificationResult はチケット照合の結果
// 不在・使用済み・キャンセル済みはいずれも Valid=false に集約される
type VerificationResult struct {
	Valid  bool
	Ticket *ticket.Ticket
	Event  *event.Event
	User   *user.User
}

// Verify はQRコードを照合する。読み取り専用で状態は一切変更しない
func (s *CheckinService) Verify(ctx context.Context, qrCode string) (*VerificationResult, error) {
	t, err := s.ticketRepo.GetByQRCode(ctx, qrCode)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return &VerificationResult{Valid: false}, nil
		}
		return nil, err
	}
	if !t.IsValid() {
		logger.Debug("無効チケットの照合",
			zap.String("ticket_id", t.ID),
			zap.String("status", string(t.Status)),
		)
		return &VerificationResult{Valid: false}, nil
	}

	ev, usr, err := s.loadSnapshot(ctx, t)
	if err != nil {
		return nil, err
	}
	return &VerificationResult{Valid: true, Ticket: t, Event: ev, User: usr}, nil
}

// CheckInReceipt はチェックイン成功時にスキャン担当者へ表示する情報
type CheckInReceipt struct {
	Ticket      *ticket.Ticket
	Event       *event.Event
	User        *user.User
	CheckedInAt time.Time
}

// CheckIn はチケットを使用済みに遷移させ、登録をチェックイン済みにする
// 2つの書き込みは同一トランザクションで行われ、同じQRコードへの並行呼び出しは
// 条件付きUPDATEにより厳密に1回だけ成功する（敗者は ErrTicketAlreadyUsed）
func (s *CheckinService) CheckIn(ctx context.Context, qrCode string) (*CheckInReceipt, error) {
	// 同一チケットへの並行スキャンを直列化する（正しさの最終防衛は条件付きUPDATE）
	if s.lockManager != nil {
		lockKey := fmt.Sprintf("checkin:%s", qrCode)
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, checkinLockTTL, lockMaxRetries, lockRetryDelay)
		if err != nil {
			if !errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, fmt.Errorf("ロック取得に失敗: %w", err)
			}
			// ロックを取れなくても条件付きUPDATEが勝敗を決める
		} else {
			defer lock.Release(ctx)
		}
	}

	now := time.Now()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	t, err := s.ticketRepo.MarkUsed(ctx, tx, qrCode, now)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return nil, s.classifyFailure(ctx, qrCode)
		}
		s.countCheckin("error")
		return nil, err
	}

	if err := s.regRepo.MarkCheckedIn(ctx, tx, t.RegistrationID, now); err != nil {
		if errors.Is(err, registration.ErrRegistrationNotFound) {
			// チケットはあるのに登録がない：正しいロジックでは発生し得ない
			logger.Error("不変条件違反: チケットに対応する登録が存在しません",
				zap.String("ticket_id", t.ID),
				zap.String("registration_id", t.RegistrationID),
			)
		}
		s.countCheckin("error")
		return nil, fmt.Errorf("チェックイン状態の更新に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.countCheckin("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	ev, usr, err := s.loadSnapshot(ctx, t)
	if err != nil {
		// チェックイン自体は確定済み。表示用スナップショットの欠落のみ返す
		return nil, err
	}

	s.countCheckin("success")
	logger.Info("チェックイン完了",
		zap.String("ticket_id", t.ID),
		zap.String("event_id", t.EventID),
		zap.String("user_id", t.UserID),
	)
	return &CheckInReceipt{Ticket: t, Event: ev, User: usr, CheckedInAt: now}, nil
}

// classifyFailure は条件付きUPDATEが空振りした原因を特定する
// API上はいずれも無効チケットだが、ログとメトリクスのために区別する
func (s *CheckinService) classifyFailure(ctx context.Context, qrCode string) error {
	existing, err := s.ticketRepo.GetByQRCode(ctx, qrCode)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			s.countCheckin("not_found")
			return ticket.ErrTicketNotFound
		}
		s.countCheckin("error")
		return err
	}
	switch existing.Status {
	case ticket.StatusCancelled:
		s.countCheckin("cancelled")
		return ticket.ErrTicketCancelled
	default:
		// used、または別トランザクションとの競合に敗れた直後
		s.countCheckin("already_used")
		return ticket.ErrTicketAlreadyUsed
	}
}

func (s *CheckinService) loadSnapshot(ctx context.Context, t *ticket.Ticket) (*event.Event, *user.User, error) {
	ev, err := s.eventRepo.GetByID(ctx, t.EventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			logger.Error("不変条件違反: チケットに対応するイベントが存在しません",
				zap.String("ticket_id", t.ID), zap.String("event_id", t.EventID))
		}
		return nil, nil, err
	}
	usr, err := s.userRepo.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			logger.Error("不変条件違反: チケットに対応するユーザーが存在しません",
				zap.String("ticket_id", t.ID), zap.String("user_id", t.UserID))
		}
		return nil, nil, err
	}
	return ev, usr, nil
}

func (s *CheckinService) countCheckin(status string) {
	if m := metrics.Get(); m != nil {
		m.CheckinsTotal.WithLabelValues(status).Inc()
	}
}
