package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campushq/go-campus-ticketing/internal/application"
	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
)

type RegistrationHandler struct {
	service RegistrationServiceInterface
}

func NewRegistrationHandler(s RegistrationServiceInterface) *RegistrationHandler {
	return &RegistrationHandler{service: s}
}

type CreateRegistrationRequest struct {
	EventID string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	// PaymentCompleted は決済コラボレーターから通知された完了シグナル
	PaymentCompleted bool `json:"payment_completed" example:"true"`
}

type RegistrationResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID        string     `json:"user_id" example:"user-123"`
	EventID       string     `json:"event_id"`
	TicketID      *string    `json:"ticket_id,omitempty"`
	Status        string     `json:"status" example:"confirmed"`
	PaymentStatus string     `json:"payment_status" example:"completed"`
	CheckedIn     bool       `json:"checked_in"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	RegisteredAt  time.Time  `json:"registered_at"`
}

func toRegistrationResponse(r *registration.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID: r.ID, UserID: r.UserID, EventID: r.EventID,
		TicketID: r.TicketID, Status: string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		CheckedIn:     r.CheckedIn, CheckedInAt: r.CheckedInAt,
		RegisteredAt: r.RegisteredAt,
	}
}

// UserRegistrationResponse は登録とイベントの結合レスポンス
type UserRegistrationResponse struct {
	Registration RegistrationResponse `json:"registration"`
	Event        EventResponse        `json:"event"`
}

// Create godoc
// @Summary イベントに参加登録
// @Description イベントに参加登録します。定員チェックと登録作成はアトミックに行われます
// @Tags registrations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateRegistrationRequest true "登録情報"
// @Success 201 {object} RegistrationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "満員または登録済み"
// @Failure 422 {object} map[string]string "受付期間外または決済未完了"
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	reg, err := h.service.Register(c.Request().Context(), application.RegisterInput{
		UserID: userID, EventID: req.EventID, PaymentCompleted: req.PaymentCompleted,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, event.ErrEventFull),
			errors.Is(err, registration.ErrAlreadyRegistered):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, event.ErrEventNotOpen),
			errors.Is(err, registration.ErrPaymentNotConfirmed):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toRegistrationResponse(reg))
}

// GetByID godoc
// @Summary 参加登録を取得
// @Description 指定IDの参加登録を取得します
// @Tags registrations
// @Produce json
// @Param id path string true "登録ID"
// @Success 200 {object} RegistrationResponse
// @Failure 404 {object} map[string]string
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	reg, err := h.service.GetRegistration(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, registration.ErrRegistrationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toRegistrationResponse(reg))
}

// ListByUser godoc
// @Summary ユーザーの参加登録一覧を取得
// @Description ユーザーの参加登録一覧をイベント情報付きで登録日時の降順に取得します
// @Tags registrations
// @Produce json
// @Param id path string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} UserRegistrationResponse
// @Router /users/{id}/registrations [get]
func (h *RegistrationHandler) ListByUser(c echo.Context) error {
	userID := c.Param("id")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	regs, err := h.service.ListUserRegistrations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]UserRegistrationResponse, len(regs))
	for i, ur := range regs {
		resp[i] = UserRegistrationResponse{
			Registration: toRegistrationResponse(ur.Registration),
			Event:        toEventResponse(ur.Event),
		}
	}
	return c.JSON(http.StatusOK, resp)
}
