package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
)

type TicketHandler struct {
	ticketService  TicketServiceInterface
	checkinService CheckinServiceInterface
}

func NewTicketHandler(ts TicketServiceInterface, cs CheckinServiceInterface) *TicketHandler {
	return &TicketHandler{ticketService: ts, checkinService: cs}
}

type IssueTicketRequest struct {
	RegistrationID string `json:"registration_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type TicketResponse struct {
	ID             string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	RegistrationID string     `json:"registration_id"`
	QRCode         string     `json:"qr_code" example:"QR_A1B2C3D4E5F6G7H8I9J0"`
	Status         string     `json:"status" example:"valid"`
	GeneratedAt    time.Time  `json:"generated_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID: t.ID, EventID: t.EventID, UserID: t.UserID,
		RegistrationID: t.RegistrationID, QRCode: t.QRCode,
		Status: string(t.Status), GeneratedAt: t.GeneratedAt, UsedAt: t.UsedAt,
	}
}

type VerifyTicketRequest struct {
	QRCode string `json:"qr_code" validate:"required" example:"QR_A1B2C3D4E5F6G7H8I9J0"`
}

// VerifyTicketResponse は照合結果
// 無効なチケットは理由を開示せず valid=false のみを返す
type VerifyTicketResponse struct {
	Valid  bool            `json:"valid"`
	Ticket *TicketResponse `json:"ticket,omitempty"`
	Event  *EventResponse  `json:"event,omitempty"`
	User   *UserResponse   `json:"user,omitempty"`
}

type CheckinTicketRequest struct {
	QRCode string `json:"qr_code" validate:"required" example:"QR_A1B2C3D4E5F6G7H8I9J0"`
}

type CheckinResponse struct {
	Ticket      TicketResponse `json:"ticket"`
	Event       EventResponse  `json:"event"`
	User        UserResponse   `json:"user"`
	CheckedInAt time.Time      `json:"checked_in_at"`
}

// Issue godoc
// @Summary チケットを発行
// @Description 参加登録に対してQRコード付きチケットを発行します（冪等）
// @Tags tickets
// @Accept json
// @Produce json
// @Param request body IssueTicketRequest true "発行対象の登録"
// @Success 201 {object} TicketResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tickets [post]
func (h *TicketHandler) Issue(c echo.Context) error {
	var req IssueTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.ticketService.IssueTicket(c.Request().Context(), req.RegistrationID)
	if err != nil {
		if errors.Is(err, registration.ErrRegistrationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toTicketResponse(t))
}

// GetByID godoc
// @Summary チケットを取得
// @Description 指定IDのチケットを取得します
// @Tags tickets
// @Produce json
// @Param id path string true "チケットID"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} map[string]string
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	t, err := h.ticketService.GetTicket(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// Verify godoc
// @Summary QRコードを照合
// @Description QRコードを照合します。状態は一切変更されません
// @Tags tickets
// @Accept json
// @Produce json
// @Param request body VerifyTicketRequest true "照合対象のQRコード"
// @Success 200 {object} VerifyTicketResponse
// @Failure 400 {object} map[string]string
// @Router /tickets/verify [post]
func (h *TicketHandler) Verify(c echo.Context) error {
	var req VerifyTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.checkinService.Verify(c.Request().Context(), req.QRCode)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !result.Valid {
		return c.JSON(http.StatusOK, VerifyTicketResponse{Valid: false})
	}
	tr := toTicketResponse(result.Ticket)
	er := toEventResponse(result.Event)
	ur := toUserResponse(result.User)
	return c.JSON(http.StatusOK, VerifyTicketResponse{
		Valid: true, Ticket: &tr, Event: &er, User: &ur,
	})
}

// Checkin godoc
// @Summary チケットでチェックイン
// @Description チケットを使用済みにし、参加登録をチェックイン済みにします。同じQRコードは1回だけ成功します
// @Tags tickets
// @Accept json
// @Produce json
// @Param request body CheckinTicketRequest true "チェックイン対象のQRコード"
// @Success 200 {object} CheckinResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "使用済みまたはキャンセル済み"
// @Router /tickets/checkin [post]
func (h *TicketHandler) Checkin(c echo.Context) error {
	var req CheckinTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	receipt, err := h.checkinService.CheckIn(c.Request().Context(), req.QRCode)
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrTicketNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ticket.ErrTicketAlreadyUsed),
			errors.Is(err, ticket.ErrTicketCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, CheckinResponse{
		Ticket:      toTicketResponse(receipt.Ticket),
		Event:       toEventResponse(receipt.Event),
		User:        toUserResponse(receipt.User),
		CheckedInAt: receipt.CheckedInAt,
	})
}
