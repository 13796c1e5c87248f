package ticket

import (
	"context"
	"time"

	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

// Repository はチケットリポジトリのインターフェース
type Repository interface {
	// Create は新しいチケットを作成する（トランザクション必須）
	// 同じ registrationID のチケットが既に存在する場合は ErrTicketAlreadyIssued を返す
	// （registration_id の一意インデックスによる検出）
	Create(ctx context.Context, tx transaction.Tx, ticket *Ticket) error

	// GetByID はIDからチケットを取得する
	GetByID(ctx context.Context, id string) (*Ticket, error)

	// GetByRegistrationID は登録IDからチケットを取得する
	GetByRegistrationID(ctx context.Context, registrationID string) (*Ticket, error)

	// GetByQRCode はQRコードからチケットを取得する（大文字小文字区別の完全一致）
	GetByQRCode(ctx context.Context, qrCode string) (*Ticket, error)

	// MarkUsed は valid なチケットのみを used に遷移させ、遷移後のチケットを返す
	// （トランザクション必須）
	// 条件付きUPDATEにより、並行呼び出しでも成功するのは厳密に1回だけ
	// valid なチケットが存在しない場合は何も更新せず ErrTicketNotFound を返し、
	// 呼び出し側が GetByQRCode で不在と使用済みを区別する
	MarkUsed(ctx context.Context, tx transaction.Tx, qrCode string, at time.Time) (*Ticket, error)
}
