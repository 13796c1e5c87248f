package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
	redisinfra "github.com/campushq/go-campus-ticketing/internal/infrastructure/redis"
	"github.com/campushq/go-campus-ticketing/internal/pkg/metrics"
	"github.com/campushq/go-campus-ticketing/internal/pkg/token"
)

const ticketLockTTL = 10 * time.Second

type TicketService struct {
	txManager   transaction.Manager
	ticketRepo  ticket.Repository
	regRepo     registration.Repository
	lockManager redisinfra.LockManagerInterface
}

func NewTicketService(
	txManager transaction.Manager,
	ticketRepo ticket.Repository,
	regRepo registration.Repository,
	lockManager redisinfra.LockManagerInterface,
) *TicketService {
	return &TicketService{
		txManager:   txManager,
		ticketRepo:  ticketRepo,
		regRepo:     regRepo,
		lockManager: lockManager,
	}
}

// IssueTicket は参加登録に対してチケットを発行する
// 冪等：既にチケットが存在する場合は QR コードを再生成せず既存のチケットを返す
// 初回発行時はチケット作成と登録への ticket_id 付与が同一トランザクションで行われる
func (s *TicketService) IssueTicket(ctx context.Context, registrationID string) (*ticket.Ticket, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		s.countIssue("error")
		return nil, err
	}

	// 冪等チェック（競合時の最終防衛は registration_id の一意制約）
	existing, err := s.ticketRepo.GetByRegistrationID(ctx, registrationID)
	if err == nil {
		s.countIssue("reused")
		return existing, nil
	}
	if !errors.Is(err, ticket.ErrTicketNotFound) {
		return nil, fmt.Errorf("既存チケットの確認に失敗: %w", err)
	}

	// 同一登録への並行発行（リトライするクライアント等）を直列化する
	if s.lockManager != nil {
		lockKey := fmt.Sprintf("ticket:%s", registrationID)
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, ticketLockTTL, lockMaxRetries, lockRetryDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				// 他の呼び出しが発行中。完了を待たずに既存チケットを探す
				return s.ticketRepo.GetByRegistrationID(ctx, registrationID)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	t := ticket.NewTicket(reg.EventID, reg.UserID, reg.ID, token.NewQRToken())
	if err := t.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.Create(ctx, tx, t); err != nil {
		if errors.Is(err, ticket.ErrTicketAlreadyIssued) {
			// 並行発行に敗れた場合は勝者のチケットを返す
			s.countIssue("reused")
			return s.ticketRepo.GetByRegistrationID(ctx, registrationID)
		}
		s.countIssue("error")
		return nil, err
	}
	if err := s.regRepo.SetTicketID(ctx, tx, reg.ID, t.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countIssue("issued")
	return t, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *TicketService) GetTicketByRegistration(ctx context.Context, registrationID string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByRegistrationID(ctx, registrationID)
}

func (s *TicketService) countIssue(status string) {
	if m := metrics.Get(); m != nil {
		m.TicketsIssuedTotal.WithLabelValues(status).Inc()
	}
}
