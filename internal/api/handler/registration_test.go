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
)

// MockRegistrationService はRegistrationServiceInterfaceのモック
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, input application.RegisterInput) (*registration.Registration, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Registration), args.Error(1)
}

func (m *MockRegistrationService) GetRegistration(ctx context.Context, id string) (*registration.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Registration), args.Error(1)
}

func (m *MockRegistrationService) ListUserRegistrations(ctx context.Context, userID string, limit, offset int) ([]*application.UserRegistration, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*application.UserRegistration), args.Error(1)
}

func testRegistration() *registration.Registration {
	return &registration.Registration{
		ID:            "reg-123",
		UserID:        "user-123",
		EventID:       "event-123",
		Status:        registration.StatusConfirmed,
		PaymentStatus: registration.PaymentCompleted,
		RegisteredAt:  time.Now(),
	}
}

func TestRegistrationHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に参加登録できる", func(t *testing.T) {
		mockService := new(MockRegistrationService)

		mockService.On("Register", mock.Anything, application.RegisterInput{
			UserID: "user-123", EventID: "event-123", PaymentCompleted: true,
		}).Return(testRegistration(), nil)

		handler := NewRegistrationHandler(mockService)

		reqBody := `{"event_id": "event-123", "payment_completed": true}`
		req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp RegistrationResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "reg-123", resp.ID)
		assert.Equal(t, "confirmed", resp.Status)
		assert.False(t, resp.CheckedIn)

		mockService.AssertExpectations(t)
	})

	t.Run("X-User-IDがないと401", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		handler := NewRegistrationHandler(mockService)

		reqBody := `{"event_id": "event-123"}`
		req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
		mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("満員は409", func(t *testing.T) {
		mockService := new(MockRegistrationService)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterInput")).
			Return(nil, event.ErrEventFull)

		handler := NewRegistrationHandler(mockService)

		reqBody := `{"event_id": "event-123"}`
		req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("登録済みは409", func(t *testing.T) {
		mockService := new(MockRegistrationService)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterInput")).
			Return(nil, registration.ErrAlreadyRegistered)

		handler := NewRegistrationHandler(mockService)

		reqBody := `{"event_id": "event-123"}`
		req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("決済未完了の有料イベントは422", func(t *testing.T) {
		mockService := new(MockRegistrationService)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterInput")).
			Return(nil, registration.ErrPaymentNotConfirmed)

		handler := NewRegistrationHandler(mockService)

		reqBody := `{"event_id": "event-123"}`
		req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
	})
}

func TestRegistrationHandler_ListByUser(t *testing.T) {
	e := NewTestEcho()

	t.Run("イベント情報付きの登録一覧を返す", func(t *testing.T) {
		mockService := new(MockRegistrationService)

		mockService.On("ListUserRegistrations", mock.Anything, "user-123", 0, 0).
			Return([]*application.UserRegistration{
				{Registration: testRegistration(), Event: testEvent()},
			}, nil)

		handler := NewRegistrationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/users/user-123/registrations", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("user-123")

		err := handler.ListByUser(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []UserRegistrationResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, "reg-123", resp[0].Registration.ID)
		assert.Equal(t, "TechFest 2026", resp[0].Event.Title)
	})
}
