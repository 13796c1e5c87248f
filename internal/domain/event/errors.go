package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound     = errors.New("イベントが見つかりません")
	ErrEventFull         = errors.New("イベントは満員です")
	ErrEventNotOpen      = errors.New("イベントは参加登録を受け付けていません")
	ErrTitleRequired     = errors.New("イベント名は必須です")
	ErrOrganizerRequired = errors.New("主催者IDは必須です")
	ErrInvalidCapacity   = errors.New("定員は1以上である必要があります")
	ErrInvalidPrice      = errors.New("価格は0以上である必要があります")
	ErrInvalidEventTime  = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrVersionConflict   = errors.New("楽観的ロックの競合が発生しました")
)
