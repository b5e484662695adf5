package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vantage-invest/advisor/internal/domain"
)

// Recorder owns message durability: a message is considered saved once the
// row write succeeds. The session's last-activity touch is best-effort and
// deliberately not transactional with the write.
type Recorder struct {
	sessions domain.ChatSessionRepository
	messages domain.MessageRepository
}

func NewRecorder(sessions domain.ChatSessionRepository, messages domain.MessageRepository) *Recorder {
	return &Recorder{sessions: sessions, messages: messages}
}

// Append durably writes the message, then touches the parent session's
// updated_at. A failed touch is logged and swallowed; the message is still
// saved.
func (r *Recorder) Append(ctx context.Context, m *domain.Message) error {
	if err := r.messages.Append(ctx, m); err != nil {
		return fmt.Errorf("advisor.Recorder.Append: %w", err)
	}

	if err := r.sessions.Touch(ctx, m.ChatID, m.CreatedAt); err != nil {
		log.Warn().Err(err).Str("chat_id", m.ChatID.String()).Msg("session touch failed after message write")
	}

	return nil
}

// CreateSession opens a new active session for the user.
func (r *Recorder) CreateSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	now := time.Now()
	session := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    &userID,
		Status:    domain.SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("advisor.Recorder.CreateSession: %w", err)
	}

	return session, nil
}

// Session loads one session by ID.
func (r *Recorder) Session(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	session, err := r.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("advisor.Recorder.Session: %w", err)
	}
	return session, nil
}

// LatestSession returns the user's most-recently-updated active session, or
// domain.ErrNotFound when they have none.
func (r *Recorder) LatestSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	session, err := r.sessions.LatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("advisor.Recorder.LatestSession: %w", err)
	}
	return session, nil
}
