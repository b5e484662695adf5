package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	ChatSessions() domain.ChatSessionRepository
	Messages() domain.MessageRepository
	Subscriptions() domain.SubscriptionRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// AdvisorService abstracts the orchestration engine for handler testing.
// *advisor.Service satisfies this interface.
type AdvisorService interface {
	AskQuestion(ctx context.Context, req advisor.AskRequest, onChunk func(string)) (*advisor.Answer, error)
	CheckAccess(ctx context.Context, userID uuid.UUID) (advisor.Access, error)
}
