package ticket

import "errors"

// Ticket ドメインのエラー定義
// ErrTicketNotFound / ErrTicketAlreadyUsed / ErrTicketCancelled は
// ログとテストのために区別されるが、API上はいずれも無効チケットとして扱われる
var (
	ErrTicketNotFound         = errors.New("チケットが見つかりません")
	ErrTicketAlreadyUsed      = errors.New("チケットは既に使用されています")
	ErrTicketCancelled        = errors.New("チケットはキャンセルされています")
	ErrTicketAlreadyIssued    = errors.New("この登録にはチケットが既に発行されています")
	ErrEventIDRequired        = errors.New("イベントIDは必須です")
	ErrUserIDRequired         = errors.New("ユーザーIDは必須です")
	ErrRegistrationIDRequired = errors.New("登録IDは必須です")
	ErrQRCodeRequired         = errors.New("QRコードは必須です")
)
