package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/user"
	"github.com/campushq/go-campus-ticketing/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusOf はドメインエラーをHTTPステータスに対応付ける
func statusOf(err error) (int, bool) {
	switch {
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, registration.ErrRegistrationNotFound),
		errors.Is(err, ticket.ErrTicketNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, event.ErrEventFull),
		errors.Is(err, registration.ErrAlreadyRegistered),
		errors.Is(err, ticket.ErrTicketAlreadyUsed),
		errors.Is(err, ticket.ErrTicketCancelled),
		errors.Is(err, ticket.ErrTicketAlreadyIssued),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, event.ErrVersionConflict):
		return http.StatusConflict, true
	case errors.Is(err, event.ErrEventNotOpen),
		errors.Is(err, registration.ErrPaymentNotConfirmed):
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ハンドラーが変換し損ねたドメインエラーもここでHTTPステータスに落とす
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else if status, ok := statusOf(err); ok {
		code = status
		message = err.Error()
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
