package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campushq/go-campus-ticketing/internal/application"
	"github.com/campushq/go-campus-ticketing/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Title       string   `json:"title" validate:"required" example:"TechFest 2026"`
	Description string   `json:"description" example:"年次テックフェスティバル"`
	Type        string   `json:"type" validate:"required,oneof=fest hackathon workshop cultural sports tech" example:"fest"`
	Venue       string   `json:"venue" example:"Main Auditorium"`
	College     string   `json:"college" example:"IIT Delhi"`
	StartAt     string   `json:"start_at" validate:"required" example:"2026-09-15T09:00:00Z"`
	EndAt       string   `json:"end_at" validate:"required" example:"2026-09-16T18:00:00Z"`
	Price       int      `json:"price" validate:"min=0" example:"0"`
	Capacity    int      `json:"capacity" validate:"required,min=1" example:"500"`
	Tags        []string `json:"tags" example:"coding,ai"`
}

type UpdateEventRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Type        string   `json:"type" validate:"required,oneof=fest hackathon workshop cultural sports tech"`
	Venue       string   `json:"venue"`
	College     string   `json:"college"`
	StartAt     string   `json:"start_at" validate:"required"`
	EndAt       string   `json:"end_at" validate:"required"`
	Price       int      `json:"price" validate:"min=0"`
	Capacity    int      `json:"capacity" validate:"required,min=1"`
	Status      string   `json:"status" validate:"required,oneof=draft upcoming live ended"`
	Tags        []string `json:"tags"`
}

type EventResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title       string    `json:"title" example:"TechFest 2026"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type" example:"fest"`
	Venue       string    `json:"venue,omitempty"`
	College     string    `json:"college,omitempty"`
	OrganizerID string    `json:"organizer_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Price       int       `json:"price"`
	Capacity    int       `json:"capacity"`
	Registered  int       `json:"registered"`
	Remaining   int       `json:"remaining"`
	Status      string    `json:"status" example:"upcoming"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Title: e.Title, Description: e.Description,
		Type: string(e.Type), Venue: e.Venue, College: e.College,
		OrganizerID: e.OrganizerID, StartAt: e.StartAt, EndAt: e.EndAt,
		Price: e.Price, Capacity: e.Capacity, Registered: e.Registered,
		Remaining: e.RemainingCapacity(), Status: string(e.Status),
		Tags: e.Tags, CreatedAt: e.CreatedAt,
	}
}

func parseEventTimes(startAt, endAt string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "start_at はRFC3339形式で指定してください")
	}
	end, err := time.Parse(time.RFC3339, endAt)
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "end_at はRFC3339形式で指定してください")
	}
	return start, end, nil
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを draft 状態で作成します
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-ID header string true "主催者のユーザーID"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	organizerID := c.Request().Header.Get("X-User-ID")
	if organizerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	start, end, err := parseEventTimes(req.StartAt, req.EndAt)
	if err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title: req.Title, Description: req.Description, Type: event.Type(req.Type),
		Venue: req.Venue, College: req.College, OrganizerID: organizerID,
		StartAt: start, EndAt: end, Price: req.Price, Capacity: req.Capacity, Tags: req.Tags,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	e, err := h.service.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description 種別・大学・キーワードで絞り込んだイベント一覧を開始日時順に取得します
// @Tags events
// @Produce json
// @Param type query string false "イベント種別"
// @Param college query string false "大学名"
// @Param search query string false "タイトル・説明の部分一致"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter := event.ListFilter{
		Type:    event.Type(c.QueryParam("type")),
		College: c.QueryParam("college"),
		Search:  c.QueryParam("search"),
		Limit:   limit,
		Offset:  offset,
	}
	events, err := h.service.ListEvents(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary イベントを更新
// @Description イベント情報を更新します（楽観的ロック）
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "更新競合"
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	start, end, err := parseEventTimes(req.StartAt, req.EndAt)
	if err != nil {
		return err
	}
	e, err := h.service.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID: id, Title: req.Title, Description: req.Description, Type: event.Type(req.Type),
		Venue: req.Venue, College: req.College, StartAt: start, EndAt: end,
		Price: req.Price, Capacity: req.Capacity, Status: event.Status(req.Status), Tags: req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, event.ErrVersionConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// GetRemainingCapacity godoc
// @Summary 残り参加枠数を取得
// @Description イベントの残り参加枠数を取得します（キャッシュされた表示用の値）
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string
// @Router /events/{id}/capacity [get]
func (h *EventHandler) GetRemainingCapacity(c echo.Context) error {
	id := c.Param("id")
	remaining, err := h.service.GetRemainingCapacity(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"remaining": remaining})
}
