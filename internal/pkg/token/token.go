package token

import (
	"crypto/rand"
	"strings"
)

// QRPrefix はQRトークンの固定プレフィックス
// エンティティIDと区別するため、発行するトークンは必ずこのプレフィックスを持つ
const QRPrefix = "QR_"

// suffixLength はランダムサフィックスの長さ（36^20 ≒ 103ビットのエントロピー）
const suffixLength = 20

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewQRToken は新しいQRトークンを生成する
// トークンは入場用のベアラークレデンシャルとなるため、crypto/rand を使用する
// トークン自体は有効性情報を一切含まず、有効性はサーバー側の照合のみで判定される
func NewQRToken() string {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand の失敗はプロセスが継続不能な状態
		panic("token: crypto/rand read failed: " + err.Error())
	}

	var sb strings.Builder
	sb.Grow(len(QRPrefix) + suffixLength)
	sb.WriteString(QRPrefix)
	for _, b := range buf {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String()
}

// HasQRPrefix は文字列がQRトークンの形式かを返す
// 形式チェックのみで有効性の判定は行わない
func HasQRPrefix(s string) bool {
	return strings.HasPrefix(s, QRPrefix)
}
