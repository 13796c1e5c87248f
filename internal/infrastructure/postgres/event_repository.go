package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description *string        `db:"description"`
	Type        string         `db:"type"`
	Venue       *string        `db:"venue"`
	College     *string        `db:"college"`
	OrganizerID string         `db:"organizer_id"`
	StartAt     time.Time      `db:"start_at"`
	EndAt       time.Time      `db:"end_at"`
	Price       int            `db:"price"`
	Capacity    int            `db:"capacity"`
	Registered  int            `db:"registered"`
	Status      string         `db:"status"`
	Tags        pq.StringArray `db:"tags"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	Version     int            `db:"version"`
}

func (r *eventRow) toEntity() *event.Event {
	var desc, venue, college string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Venue != nil {
		venue = *r.Venue
	}
	if r.College != nil {
		college = *r.College
	}
	return &event.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: desc,
		Type:        event.Type(r.Type),
		Venue:       venue,
		College:     college,
		OrganizerID: r.OrganizerID,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Price:       r.Price,
		Capacity:    r.Capacity,
		Registered:  r.Registered,
		Status:      event.Status(r.Status),
		Tags:        []string(r.Tags),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

const eventColumns = `id, title, description, type, venue, college, organizer_id, start_at, end_at, price, capacity, registered, status, tags, created_at, updated_at, version`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, type, venue, college, organizer_id, start_at, end_at, price, capacity, registered, status, tags, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var desc, venue, college *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Venue != "" {
		venue = &e.Venue
	}
	if e.College != "" {
		college = &e.College
	}

	err := r.db.QueryRowContext(ctx, query,
		e.Title, desc, string(e.Type), venue, college, e.OrganizerID,
		e.StartAt, e.EndAt, e.Price, e.Capacity, e.Registered,
		string(e.Status), pq.Array(e.Tags), e.CreatedAt, e.UpdatedAt, e.Version,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDs は複数IDからイベントをまとめて取得する
func (r *EventRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*event.Event, error) {
	if len(ids) == 0 {
		return map[string]*event.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1)`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("イベント一括取得に失敗しました: %w", err)
	}

	result := make(map[string]*event.Event, len(rows))
	for _, row := range rows {
		result[row.ID] = row.toEntity()
	}
	return result, nil
}

// List はフィルタ条件に一致するイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []interface{}{}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.College != "" {
		args = append(args, "%"+filter.College+"%")
		query += fmt.Sprintf(" AND college ILIKE $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", n, n)
	}

	query += " ORDER BY start_at ASC"
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントを更新する（楽観的ロック）
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, type = $3, venue = $4, college = $5,
		    start_at = $6, end_at = $7, price = $8, capacity = $9, status = $10,
		    tags = $11, updated_at = $12, version = version + 1
		WHERE id = $13 AND version = $14
	`

	var desc, venue, college *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Venue != "" {
		venue = &e.Venue
	}
	if e.College != "" {
		college = &e.College
	}

	result, err := r.db.ExecContext(ctx, query,
		e.Title, desc, string(e.Type), venue, college,
		e.StartAt, e.EndAt, e.Price, e.Capacity, string(e.Status),
		pq.Array(e.Tags), time.Now(), e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrVersionConflict
	}

	e.Version++
	return nil
}

// ReserveSlot は空き枠がある場合のみ参加登録数を1増やす
// 定員チェックと加算を単一の条件付きUPDATEで行い、
// 並行登録時の取りすぎ（オーバーセル）を防ぐ
func (r *EventRepository) ReserveSlot(ctx context.Context, tx transaction.Tx, eventID string) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		UPDATE events
		SET registered = registered + 1, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND registered < capacity
	`
	result, err := sqlxTx.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("参加枠の確保に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// イベント不在か満員かを区別して返す
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID); err != nil {
			return fmt.Errorf("イベント存在確認に失敗しました: %w", err)
		}
		if !exists {
			return event.ErrEventNotFound
		}
		return event.ErrEventFull
	}
	return nil
}

// SyncStatuses は開催スケジュールに応じてイベントステータスを遷移させる
func (r *EventRepository) SyncStatuses(ctx context.Context, now time.Time) (int, error) {
	var total int64

	result, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET status = 'live', updated_at = NOW(), version = version + 1
		WHERE status = 'upcoming' AND start_at <= $1 AND end_at > $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("live への遷移に失敗しました: %w", err)
	}
	n, _ := result.RowsAffected()
	total += n

	result, err = r.db.ExecContext(ctx, `
		UPDATE events
		SET status = 'ended', updated_at = NOW(), version = version + 1
		WHERE status IN ('upcoming', 'live') AND end_at <= $1
	`, now)
	if err != nil {
		return int(total), fmt.Errorf("ended への遷移に失敗しました: %w", err)
	}
	n, _ = result.RowsAffected()
	total += n

	return int(total), nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
