package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusArchived SessionStatus = "archived"
)

// ChatSession is a long-lived conversation container. UserID is nil for
// guest sessions, which are never persisted but share the type.
type ChatSession struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Metadata keys for the raw specialist payloads attached to assistant
// messages produced by the full orchestration path.
const (
	MetaTechnical  = "technical"
	MetaMacro      = "macro"
	MetaStrategist = "strategist"
)

// Message is an immutable conversation record. Content is never mutated
// after the write; corrections are appended as new messages.
type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	Role      MessageRole
	Content   string
	Metadata  map[string]string // nil for user and simple Q&A messages
	CreatedAt time.Time
}

type ChatSessionRepository interface {
	Create(ctx context.Context, s *ChatSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*ChatSession, error)
	// LatestByUser returns the most-recently-updated active session.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*ChatSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status SessionStatus) error
}

type MessageRepository interface {
	Append(ctx context.Context, m *Message) error
	// ListByChat returns messages in creation order.
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]*Message, error)
}
