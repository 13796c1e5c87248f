package handler

import (
	"context"

	"github.com/campushq/go-campus-ticketing/internal/application"
	"github.com/campushq/go-campus-ticketing/internal/domain/event"
	"github.com/campushq/go-campus-ticketing/internal/domain/registration"
	"github.com/campushq/go-campus-ticketing/internal/domain/ticket"
	"github.com/campushq/go-campus-ticketing/internal/domain/user"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	GetRemainingCapacity(ctx context.Context, eventID string) (int, error)
}

// RegistrationServiceInterface は参加登録サービスのインターフェース
type RegistrationServiceInterface interface {
	Register(ctx context.Context, input application.RegisterInput) (*registration.Registration, error)
	GetRegistration(ctx context.Context, id string) (*registration.Registration, error)
	ListUserRegistrations(ctx context.Context, userID string, limit, offset int) ([]*application.UserRegistration, error)
}

// TicketServiceInterface はチケットサービスのインターフェース
type TicketServiceInterface interface {
	IssueTicket(ctx context.Context, registrationID string) (*ticket.Ticket, error)
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)
	GetTicketByRegistration(ctx context.Context, registrationID string) (*ticket.Ticket, error)
}

// CheckinServiceInterface はチェックインサービスのインターフェース
type CheckinServiceInterface interface {
	Verify(ctx context.Context, qrCode string) (*application.VerificationResult, error)
	CheckIn(ctx context.Context, qrCode string) (*application.CheckInReceipt, error)
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	CreateUser(ctx context.Context, input application.CreateUserInput) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	UpdateUser(ctx context.Context, input application.UpdateUserInput) (*user.User, error)
}
