package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound    = errors.New("ユーザーが見つかりません")
	ErrNameRequired    = errors.New("ユーザー名は必須です")
	ErrEmailRequired   = errors.New("メールアドレスは必須です")
	ErrInvalidUserType = errors.New("不正なユーザー種別です")
	ErrEmailTaken      = errors.New("メールアドレスは既に使用されています")
)
