package ticket

import "time"

// Status はチケットの状態を表す
// 遷移は valid→used（チェックイン成功）と valid→cancelled のみの一方通行で、
// used や cancelled から valid に戻ることはない
type Status string

const (
	StatusValid     Status = "valid"
	StatusUsed      Status = "used"
	StatusCancelled Status = "cancelled"
)

// Ticket はチケットエンティティを表す
// 1つの参加登録に対して必ず1枚だけ存在し、QRコードは単回使用のベアラートークン
type Ticket struct {
	ID             string
	EventID        string
	UserID         string
	RegistrationID string
	QRCode         string
	Status         Status
	GeneratedAt    time.Time
	UsedAt         *time.Time
}

// NewTicket は新しいチケットを作成する
func NewTicket(eventID, userID, registrationID, qrCode string) *Ticket {
	return &Ticket{
		EventID:        eventID,
		UserID:         userID,
		RegistrationID: registrationID,
		QRCode:         qrCode,
		Status:         StatusValid,
		GeneratedAt:    time.Now(),
	}
}

// IsValid はチェックイン可能な状態かを返す
func (t *Ticket) IsValid() bool {
	return t.Status == StatusValid
}

// Use はチケットを使用済みに遷移させる
// 並行アクセス下での最終判定は永続化層の条件付き更新が担い、
// ここでは状態機械としての遷移規則のみを表現する
func (t *Ticket) Use(at time.Time) error {
	switch t.Status {
	case StatusUsed:
		return ErrTicketAlreadyUsed
	case StatusCancelled:
		return ErrTicketCancelled
	}
	t.Status = StatusUsed
	t.UsedAt = &at
	return nil
}

// Validate はチケットの検証を行う
func (t *Ticket) Validate() error {
	if t.EventID == "" {
		return ErrEventIDRequired
	}
	if t.UserID == "" {
		return ErrUserIDRequired
	}
	if t.RegistrationID == "" {
		return ErrRegistrationIDRequired
	}
	if t.QRCode == "" {
		return ErrQRCodeRequired
	}
	return nil
}
