package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

type registrationRow struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	EventID       string     `db:"event_id"`
	TicketID      *string    `db:"ticket_id"`
	Status        string     `db:"status"`
	PaymentStatus string     `db:"payment_status"`
	CheckedIn     bool       `db:"checked_in"`
	CheckedInAt   *time.Time `db:"checked_in_at"`
	RegisteredAt  time.Time  `db:"registered_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *registrationRow) toEntity() *registration.Registration {
	return &registration.Registration{
		ID:            r.ID,
		UserID:        r.UserID,
		EventID:       r.EventID,
		TicketID:      r.TicketID,
		Status:        registration.Status(r.Status),
		PaymentStatus: registration.PaymentStatus(r.PaymentStatus),
		CheckedIn:     r.CheckedIn,
		CheckedInAt:   r.CheckedInAt,
		RegisteredAt:  r.RegisteredAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const registrationColumns = `id, user_id, event_id, ticket_id, status, payment_status, checked_in, checked_in_at, registered_at, updated_at`

// RegistrationRepository は参加登録リポジトリのPostgreSQL実装
type RegistrationRepository struct{ db *sqlx.DB }

func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create は新しい参加登録を作成する
// active な登録の重複は部分一意インデックス（status <> 'cancelled'）が検出する
func (r *RegistrationRepository) Create(ctx context.Context, tx transaction.Tx, reg *registration.Registration) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO registrations (user_id, event_id, status, payment_status, checked_in, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		reg.UserID, reg.EventID, string(reg.Status), string(reg.PaymentStatus),
		reg.CheckedIn, reg.RegisteredAt, reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return registration.ErrAlreadyRegistered
		}
		return fmt.Errorf("参加登録の作成に失敗しました: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*registration.Registration, error) {
	var row registrationRow
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registration.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("参加登録の取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func (r *RegistrationRepository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*registration.Registration, error) {
	var row registrationRow
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 AND event_id = $2 AND status <> 'cancelled'`
	if err := r.db.GetContext(ctx, &row, query, userID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registration.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("参加登録の取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func (r *RegistrationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*registration.Registration, error) {
	var rows []registrationRow
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY registered_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("参加登録一覧の取得に失敗しました: %w", err)
	}
	result := make([]*registration.Registration, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// SetTicketID は登録にチケットIDを紐付ける
// ticket_id が未設定の行のみ更新し、二重発行の痕跡を残さない
func (r *RegistrationRepository) SetTicketID(ctx context.Context, tx transaction.Tx, registrationID, ticketID string) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE registrations SET ticket_id = $1, updated_at = NOW() WHERE id = $2 AND ticket_id IS NULL`
	result, err := sqlxTx.ExecContext(ctx, query, ticketID, registrationID)
	if err != nil {
		return fmt.Errorf("チケットIDの設定に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return registration.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) MarkCheckedIn(ctx context.Context, tx transaction.Tx, registrationID string, at time.Time) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE registrations SET checked_in = TRUE, checked_in_at = $1, updated_at = $1 WHERE id = $2`
	result, err := sqlxTx.ExecContext(ctx, query, at, registrationID)
	if err != nil {
		return fmt.Errorf("チェックイン状態の更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return registration.ErrRegistrationNotFound
	}
	return nil
}

var _ registration.Repository = (*RegistrationRepository)(nil)
