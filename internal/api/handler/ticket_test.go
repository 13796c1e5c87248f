package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campushq/go-campus-ticketing/internal/application"
	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/user"
)

// MockTicketService はTicketServiceInterfaceのモック
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) IssueTicket(ctx context.Context, registrationID string) (*ticket.Ticket, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicketByRegistration(ctx context.Context, registrationID string) (*ticket.Ticket, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

// MockCheckinService はCheckinServiceInterfaceのモック
type MockCheckinService struct {
	mock.Mock
}

func (m *MockCheckinService) Verify(ctx context.Context, qrCode string) (*application.VerificationResult, error) {
	args := m.Called(ctx, qrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.VerificationResult), args.Error(1)
}

func (m *MockCheckinService) CheckIn(ctx context.Context, qrCode string) (*application.CheckInReceipt, error) {
	args := m.Called(ctx, qrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CheckInReceipt), args.Error(1)
}

func testTicket() *ticket.Ticket {
	return &ticket.Ticket{
		ID:             "ticket-123",
		EventID:        "event-123",
		UserID:         "user-123",
		RegistrationID: "reg-123",
		QRCode:         "QR_A1B2C3D4E5F6G7H8I9J0",
		Status:         ticket.StatusValid,
		GeneratedAt:    time.Now(),
	}
}

func testEvent() *event.Event {
	now := time.Now()
	return &event.Event{
		ID:          "event-123",
		Title:       "TechFest 2026",
		Type:        event.TypeFest,
		OrganizerID: "org-1",
		StartAt:     now.Add(24 * time.Hour),
		EndAt:       now.Add(48 * time.Hour),
		Capacity:    500,
		Registered:  100,
		Status:      event.StatusUpcoming,
	}
}

func testUser() *user.User {
	return &user.User{
		ID:    "user-123",
		Name:  "Priya Sharma",
		Email: "priya@example.com",
		Type:  user.TypeStudent,
	}
}

func TestTicketHandler_Issue(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にチケットを発行できる", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockTicketService.On("IssueTicket", mock.Anything, "reg-123").Return(testTicket(), nil)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"registration_id": "reg-123"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Issue(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp TicketResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "ticket-123", resp.ID)
		assert.Equal(t, "QR_A1B2C3D4E5F6G7H8I9J0", resp.QRCode)
		assert.Equal(t, "valid", resp.Status)

		mockTicketService.AssertExpectations(t)
	})

	t.Run("存在しない登録は404", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockTicketService.On("IssueTicket", mock.Anything, "missing").
			Return(nil, registration.ErrRegistrationNotFound)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"registration_id": "missing"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Issue(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})

	t.Run("registration_idがないと400", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Issue(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockTicketService.AssertNotCalled(t, "IssueTicket", mock.Anything, mock.Anything)
	})
}

func TestTicketHandler_Verify(t *testing.T) {
	e := NewTestEcho()

	t.Run("有効なチケットはvalid=trueと詳細を返す", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockCheckinService.On("Verify", mock.Anything, "QR_A1B2C3D4E5F6G7H8I9J0").
			Return(&application.VerificationResult{
				Valid:  true,
				Ticket: testTicket(),
				Event:  testEvent(),
				User:   testUser(),
			}, nil)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"qr_code": "QR_A1B2C3D4E5F6G7H8I9J0"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets/verify", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Verify(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp VerifyTicketResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		require.NotNil(t, resp.Ticket)
		assert.Equal(t, "ticket-123", resp.Ticket.ID)
		assert.Equal(t, "TechFest 2026", resp.Event.Title)
		assert.Equal(t, "Priya Sharma", resp.User.Name)
	})

	t.Run("無効なチケットはvalid=falseのみで理由を開示しない", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockCheckinService.On("Verify", mock.Anything, "QR_UNKNOWN").
			Return(&application.VerificationResult{Valid: false}, nil)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"qr_code": "QR_UNKNOWN"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets/verify", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Verify(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, false, resp["valid"])
		assert.NotContains(t, resp, "ticket")
	})
}

func TestTicketHandler_Checkin(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にチェックインできる", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		now := time.Now()
		used := testTicket()
		used.Status = ticket.StatusUsed
		used.UsedAt = &now

		mockCheckinService.On("CheckIn", mock.Anything, "QR_A1B2C3D4E5F6G7H8I9J0").
			Return(&application.CheckInReceipt{
				Ticket:      used,
				Event:       testEvent(),
				User:        testUser(),
				CheckedInAt: now,
			}, nil)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"qr_code": "QR_A1B2C3D4E5F6G7H8I9J0"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets/checkin", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Checkin(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp CheckinResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "used", resp.Ticket.Status)
		assert.Equal(t, "Priya Sharma", resp.User.Name)
	})

	t.Run("使用済みチケットは409", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockCheckinService.On("CheckIn", mock.Anything, "QR_USED").
			Return(nil, ticket.ErrTicketAlreadyUsed)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"qr_code": "QR_USED"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets/checkin", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Checkin(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("存在しないQRコードは404", func(t *testing.T) {
		mockTicketService := new(MockTicketService)
		mockCheckinService := new(MockCheckinService)

		mockCheckinService.On("CheckIn", mock.Anything, "QR_UNKNOWN").
			Return(nil, ticket.ErrTicketNotFound)

		handler := NewTicketHandler(mockTicketService, mockCheckinService)

		reqBody := `{"qr_code": "QR_UNKNOWN"}`
		req := httptest.NewRequest(http.MethodPost, "/tickets/checkin", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Checkin(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}
