package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

type ticketRow struct {
	ID             string     `db:"id"`
	EventID        string     `db:"event_id"`
	UserID         string     `db:"user_id"`
	RegistrationID string     `db:"registration_id"`
	QRCode         string     `db:"qr_code"`
	Status         string     `db:"status"`
	GeneratedAt    time.Time  `db:"generated_at"`
	UsedAt         *time.Time `db:"used_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		ID:             r.ID,
		EventID:        r.EventID,
		UserID:         r.UserID,
		RegistrationID: r.RegistrationID,
		QRCode:         r.QRCode,
		Status:         ticket.Status(r.Status),
		GeneratedAt:    r.GeneratedAt,
		UsedAt:         r.UsedAt,
	}
}

const ticketColumns = `id, event_id, user_id, registration_id, qr_code, status, generated_at, used_at`

// TicketRepository はチケットリポジトリのPostgreSQL実装
type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create は新しいチケットを作成する
// registration_id の一意インデックスが並行発行時の二重作成を防ぐ
func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO tickets (event_id, user_id, registration_id, qr_code, status, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		t.EventID, t.UserID, t.RegistrationID, t.QRCode, string(t.Status), t.GeneratedAt,
	).Scan(&t.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return ticket.ErrTicketAlreadyIssued
		}
		return fmt.Errorf("チケット作成に失敗しました: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var row ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TicketRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*ticket.Ticket, error) {
	var row ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE registration_id = $1`
	if err := r.db.GetContext(ctx, &row, query, registrationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TicketRepository) GetByQRCode(ctx context.Context, qrCode string) (*ticket.Ticket, error) {
	var row ticketRow
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE qr_code = $1`
	if err := r.db.GetContext(ctx, &row, query, qrCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// MarkUsed は valid なチケットのみを used に遷移させる
// WHERE status = 'valid' の条件付きUPDATEにより、並行スキャンでも
// 成功するのは厳密に1回だけ（compare-and-swap）
func (r *TicketRepository) MarkUsed(ctx context.Context, tx transaction.Tx, qrCode string, at time.Time) (*ticket.Ticket, error) {
	sqlxTx := UnwrapTx(tx)
	query := `
		UPDATE tickets
		SET status = 'used', used_at = $1
		WHERE qr_code = $2 AND status = 'valid'
		RETURNING ` + ticketColumns

	var row ticketRow
	err := sqlxTx.QueryRowxContext(ctx, query, at, qrCode).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケットの使用済み遷移に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

var _ ticket.Repository = (*TicketRepository)(nil)
