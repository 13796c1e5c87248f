package registration

import "errors"

// Registration ドメインのエラー定義
var (
	ErrRegistrationNotFound = errors.New("参加登録が見つかりません")
	ErrAlreadyRegistered    = errors.New("このイベントには既に登録済みです")
	ErrPaymentNotConfirmed  = errors.New("支払いが完了していません")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired      = errors.New("イベントIDは必須です")
)
