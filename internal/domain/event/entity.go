package event

import "time"

// Status はイベントの状態を表す
type Status string

const (
	StatusDraft    Status = "draft"
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

// Type はイベントの種別を表す
type Type string

const (
	TypeFest      Type = "fest"
	TypeHackathon Type = "hackathon"
	TypeWorkshop  Type = "workshop"
	TypeCultural  Type = "cultural"
	TypeSports    Type = "sports"
	TypeTech      Type = "tech"
)

// Event はイベントエンティティを表す
type Event struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Venue       string
	College     string
	OrganizerID string
	StartAt     time.Time
	EndAt       time.Time
	Price       int
	Capacity    int
	Registered  int
	Status      Status
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
// 作成直後は draft 状態で参加登録数は0
func NewEvent(title, description string, eventType Type, venue, college, organizerID string, startAt, endAt time.Time, price, capacity int, tags []string) *Event {
	now := time.Now()
	return &Event{
		Title:       title,
		Description: description,
		Type:        eventType,
		Venue:       venue,
		College:     college,
		OrganizerID: organizerID,
		StartAt:     startAt,
		EndAt:       endAt,
		Price:       price,
		Capacity:    capacity,
		Registered:  0,
		Status:      StatusDraft,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// IsFree は無料イベントかを返す
func (e *Event) IsFree() bool {
	return e.Price == 0
}

// IsOpenForRegistration は参加登録を受け付けている状態かを返す
func (e *Event) IsOpenForRegistration() bool {
	return e.Status == StatusUpcoming || e.Status == StatusLive
}

// HasCapacity は空き枠があるかを返す
// 最終判定は登録トランザクション内の条件付き更新で行われるため、これは事前チェック用
func (e *Event) HasCapacity() bool {
	return e.Registered < e.Capacity
}

// RemainingCapacity は残り枠数を返す
func (e *Event) RemainingCapacity() int {
	remaining := e.Capacity - e.Registered
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.OrganizerID == "" {
		return ErrOrganizerRequired
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.EndAt.Before(e.StartAt) {
		return ErrInvalidEventTime
	}
	return nil
}
