package registration

import (
	"context"
	"time"

	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

// Repository は参加登録リポジトリのインターフェース
type Repository interface {
	// Create は新しい参加登録を作成する（トランザクション必須）
	// 同一 (userID, eventID) の active な登録が既に存在する場合は
	// ErrAlreadyRegistered を返す（部分一意インデックスによる検出）
	Create(ctx context.Context, tx transaction.Tx, registration *Registration) error

	// GetByID はIDから参加登録を取得する
	GetByID(ctx context.Context, id string) (*Registration, error)

	// GetActiveByUserAndEvent は (userID, eventID) の active な登録を取得する
	GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*Registration, error)

	// GetByUserID はユーザーの参加登録一覧を登録日時の降順で取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Registration, error)

	// SetTicketID は登録にチケットIDを紐付ける（トランザクション必須）
	// ticket_id は一度だけ設定される
	SetTicketID(ctx context.Context, tx transaction.Tx, registrationID, ticketID string) error

	// MarkCheckedIn は登録をチェックイン済みにする（トランザクション必須）
	MarkCheckedIn(ctx context.Context, tx transaction.Tx, registrationID string, at time.Time) error
}
