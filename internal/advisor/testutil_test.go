package advisor_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/domain"
	"github.com/vantage-invest/advisor/internal/llm"
)

// ---------------------------------------------------------------------------
// Fake Completer
// ---------------------------------------------------------------------------

type fakeCompleter struct {
	completeFunc       func(ctx context.Context, req llm.Request) (string, error)
	completeStreamFunc func(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.completeFunc(ctx, req)
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	return f.completeStreamFunc(ctx, req)
}

// streamOf builds a pre-filled, closed event channel.
func streamOf(events ...llm.StreamEvent) <-chan llm.StreamEvent {
	ch := make(chan llm.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func deltas(parts ...string) []llm.StreamEvent {
	events := make([]llm.StreamEvent, 0, len(parts))
	for _, p := range parts {
		events = append(events, llm.StreamEvent{Delta: p})
	}
	return events
}

// ---------------------------------------------------------------------------
// Mock repositories
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

type mockMessageRepo struct {
	appendFunc     func(ctx context.Context, m *domain.Message) error
	listByChatFunc func(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error)
}

func (m *mockMessageRepo) Append(ctx context.Context, msg *domain.Message) error {
	return m.appendFunc(ctx, msg)
}

func (m *mockMessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error) {
	return m.listByChatFunc(ctx, chatID)
}

type mockSubscriptionRepo struct {
	createFunc       func(ctx context.Context, sub *domain.Subscription) error
	activeByUserFunc func(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	updateUsageFunc  func(ctx context.Context, id uuid.UUID, usage map[string]int) error
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.createFunc(ctx, sub)
}

func (m *mockSubscriptionRepo) ActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return m.activeByUserFunc(ctx, userID)
}

func (m *mockSubscriptionRepo) UpdateUsage(ctx context.Context, id uuid.UUID, usage map[string]int) error {
	return m.updateUsageFunc(ctx, id, usage)
}

// ---------------------------------------------------------------------------
// Mock service collaborators
// ---------------------------------------------------------------------------

type mockDispatcher struct {
	dispatchFunc func(ctx context.Context, question, language string) *advisor.SpecialistSet
}

func (m *mockDispatcher) Dispatch(ctx context.Context, question, language string) *advisor.SpecialistSet {
	return m.dispatchFunc(ctx, question, language)
}

type mockSynthesizer struct {
	synthesizeFunc func(ctx context.Context, contextDoc, question, language string, onChunk func(string)) (string, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, contextDoc, question, language string, onChunk func(string)) (string, error) {
	return m.synthesizeFunc(ctx, contextDoc, question, language, onChunk)
}

type mockQuota struct {
	checkAccessFunc func(ctx context.Context, userID uuid.UUID) (advisor.Access, error)
	recordUsageFunc func(ctx context.Context, userID uuid.UUID, amount int) error
}

func (m *mockQuota) CheckAccess(ctx context.Context, userID uuid.UUID) (advisor.Access, error) {
	return m.checkAccessFunc(ctx, userID)
}

func (m *mockQuota) RecordUsage(ctx context.Context, userID uuid.UUID, amount int) error {
	return m.recordUsageFunc(ctx, userID, amount)
}

type mockConversationLog struct {
	appendFunc        func(ctx context.Context, m *domain.Message) error
	createSessionFunc func(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error)
	latestSessionFunc func(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error)
	sessionFunc       func(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error)
}

func (m *mockConversationLog) Append(ctx context.Context, msg *domain.Message) error {
	return m.appendFunc(ctx, msg)
}

func (m *mockConversationLog) CreateSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	return m.createSessionFunc(ctx, userID)
}

func (m *mockConversationLog) LatestSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	return m.latestSessionFunc(ctx, userID)
}

func (m *mockConversationLog) Session(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	return m.sessionFunc(ctx, id)
}

type publishedEvent struct {
	channel string
	payload []byte
}

type mockPublisher struct {
	publishFunc func(ctx context.Context, channel string, payload []byte) error
	events      []publishedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, channel, payload)
	}
	m.events = append(m.events, publishedEvent{channel: channel, payload: payload})
	return nil
}
