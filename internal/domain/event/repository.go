package event

import (
	"context"
	"time"

	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

// ListFilter はイベント一覧の絞り込み条件
type ListFilter struct {
	Type    Type
	College string
	Search  string
	Limit   int
	Offset  int
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// GetByIDs は複数IDからイベントをまとめて取得する（存在しないIDは無視）
	GetByIDs(ctx context.Context, ids []string) (map[string]*Event, error)

	// List はフィルタ条件に一致するイベント一覧を開始日時順で取得する
	List(ctx context.Context, filter ListFilter) ([]*Event, error)

	// Update はイベントを更新する（楽観的ロック）
	Update(ctx context.Context, event *Event) error

	// ReserveSlot は空き枠がある場合のみ参加登録数を1増やす（トランザクション必須）
	// 定員チェックと加算は単一の条件付きUPDATEで行われ、満員の場合は ErrEventFull を返す
	ReserveSlot(ctx context.Context, tx transaction.Tx, eventID string) error

	// SyncStatuses は開催スケジュールに応じて upcoming→live→ended を遷移させ、
	// 更新した件数を返す
	SyncStatuses(ctx context.Context, now time.Time) (int, error)
}
