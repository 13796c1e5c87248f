package registration

import "time"

// Status は参加登録の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus は支払いの状態を表す
// 支払いの検証は外部コラボレーターの責務で、本システムは通知された結果を記録するのみ
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Registration は参加登録エンティティを表す
type Registration struct {
	ID            string
	UserID        string
	EventID       string
	TicketID      *string
	Status        Status
	PaymentStatus PaymentStatus
	CheckedIn     bool
	CheckedInAt   *time.Time
	RegisteredAt  time.Time
	UpdatedAt     time.Time
}

// NewRegistration は新しい参加登録を作成する
// 登録時点で確定状態になる（仮押さえフェーズは存在しない）
func NewRegistration(userID, eventID string, paymentStatus PaymentStatus) *Registration {
	now := time.Now()
	return &Registration{
		UserID:        userID,
		EventID:       eventID,
		Status:        StatusConfirmed,
		PaymentStatus: paymentStatus,
		CheckedIn:     false,
		RegisteredAt:  now,
		UpdatedAt:     now,
	}
}

// IsActive はキャンセルされていない登録かを返す
// 重複登録の判定対象は active な登録のみ
func (r *Registration) IsActive() bool {
	return r.Status != StatusCancelled
}

// HasTicket はチケットが発行済みかを返す
func (r *Registration) HasTicket() bool {
	return r.TicketID != nil
}

// MarkCheckedIn はチェックイン済みにする
// 二重チェックインの防止はチケット側の状態遷移で保証されるため、ここでは冪等に振る舞う
func (r *Registration) MarkCheckedIn(at time.Time) {
	r.CheckedIn = true
	r.CheckedInAt = &at
	r.UpdatedAt = at
}

// Validate は参加登録の検証を行う
func (r *Registration) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.EventID == "" {
		return ErrEventIDRequired
	}
	return nil
}
