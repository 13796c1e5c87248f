package user

import "time"

// Type はユーザーの種別を表す
type Type string

const (
	TypeStudent   Type = "student"
	TypeOrganizer Type = "organizer"
	TypeCrew      Type = "crew"
	TypeAdmin     Type = "admin"
)

// User はユーザーエンティティを表す
// 認証は外部コラボレーターの責務で、本システムは検証済みIDを信頼する
type User struct {
	ID        string
	Name      string
	Email     string
	Type      Type
	College   string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser は新しいユーザーを作成する
func NewUser(name, email string, userType Type, college string) *User {
	now := time.Now()
	return &User{
		Name:      name,
		Email:     email,
		Type:      userType,
		College:   college,
		Verified:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Name == "" {
		return ErrNameRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	switch u.Type {
	case TypeStudent, TypeOrganizer, TypeCrew, TypeAdmin:
	default:
		return ErrInvalidUserType
	}
	return nil
}
