package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/domain"
	"github.com/vantage-invest/advisor/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	sessions      domain.ChatSessionRepository
	messages      domain.MessageRepository
	subscriptions domain.SubscriptionRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) ChatSessions() domain.ChatSessionRepository   { return m.sessions }
func (m *mockDataStore) Messages() domain.MessageRepository           { return m.messages }
func (m *mockDataStore) Subscriptions() domain.SubscriptionRepository { return m.subscriptions }

// ---------------------------------------------------------------------------
// Mock ChatSessionRepository
// ---------------------------------------------------------------------------

type mockSessionRepo struct {
	createFunc       func(ctx context.Context, s *domain.ChatSession) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error)
	latestByUserFunc func(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error)
	touchFunc        func(ctx context.Context, id uuid.UUID, at time.Time) error
	updateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.ChatSession) error {
	return m.createFunc(ctx, s)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockSessionRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	return m.latestByUserFunc(ctx, userID)
}

func (m *mockSessionRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.touchFunc(ctx, id, at)
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	return m.updateStatusFunc(ctx, id, status)
}

// ---------------------------------------------------------------------------
// Mock MessageRepository
// ---------------------------------------------------------------------------

type mockMessageRepo struct {
	appendFunc     func(ctx context.Context, msg *domain.Message) error
	listByChatFunc func(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error)
}

func (m *mockMessageRepo) Append(ctx context.Context, msg *domain.Message) error {
	return m.appendFunc(ctx, msg)
}

func (m *mockMessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error) {
	return m.listByChatFunc(ctx, chatID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock AdvisorService
// ---------------------------------------------------------------------------

type mockAdvisorService struct {
	askQuestionFunc func(ctx context.Context, req advisor.AskRequest, onChunk func(string)) (*advisor.Answer, error)
	checkAccessFunc func(ctx context.Context, userID uuid.UUID) (advisor.Access, error)
}

func (m *mockAdvisorService) AskQuestion(ctx context.Context, req advisor.AskRequest, onChunk func(string)) (*advisor.Answer, error) {
	return m.askQuestionFunc(ctx, req, onChunk)
}

func (m *mockAdvisorService) CheckAccess(ctx context.Context, userID uuid.UUID) (advisor.Access, error) {
	return m.checkAccessFunc(ctx, userID)
}
