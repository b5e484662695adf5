package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vantage-invest/advisor/internal/domain"
)

// ErrEmptyQuestion is returned when the question is empty after trimming.
var ErrEmptyQuestion = errors.New("advisor: empty question")

// ChunkPublisher abstracts the Redis pub/sub publish operation used to mirror
// synthesis chunks to other listening devices. May be nil.
type ChunkPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ChatChannel is the pub/sub channel carrying chunk events for a session.
func ChatChannel(sessionID uuid.UUID) string {
	return "chat:" + sessionID.String()
}

type questionDispatcher interface {
	Dispatch(ctx context.Context, question, language string) *SpecialistSet
}

type answerSynthesizer interface {
	Synthesize(ctx context.Context, contextDoc, question, language string, onChunk func(string)) (string, error)
}

type quotaGate interface {
	CheckAccess(ctx context.Context, userID uuid.UUID) (Access, error)
	RecordUsage(ctx context.Context, userID uuid.UUID, amount int) error
}

type conversationLog interface {
	Append(ctx context.Context, m *domain.Message) error
	CreateSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error)
	LatestSession(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error)
	Session(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error)
}

// AskRequest is one inbound advisory question. UserID nil marks a guest:
// guests skip quota and persistence entirely but still run the full four-call
// orchestration. SessionID nil resolves to the user's latest active session,
// creating one if needed.
type AskRequest struct {
	UserID    *uuid.UUID
	SessionID *uuid.UUID
	Text      string
	Language  string
}

// Answer is the settled outcome of AskQuestion. Message is persisted for
// authenticated callers except on the quota short-circuit, where it is a
// synthetic, unsaved "limit reached" message and LimitReached is set.
type Answer struct {
	Message      *domain.Message
	SessionID    *uuid.UUID
	LimitReached bool
}

// Service is the advisory orchestration engine: quota gate, specialist
// fan-out, streamed synthesis and conversation recording, in that order.
type Service struct {
	dispatcher  questionDispatcher
	synthesizer answerSynthesizer
	quota       quotaGate
	recorder    conversationLog
	publisher   ChunkPublisher // nil disables pub/sub mirroring
}

func NewService(dispatcher questionDispatcher, synthesizer answerSynthesizer, quota quotaGate, recorder conversationLog, publisher ChunkPublisher) *Service {
	return &Service{
		dispatcher:  dispatcher,
		synthesizer: synthesizer,
		quota:       quota,
		recorder:    recorder,
		publisher:   publisher,
	}
}

// AskQuestion runs the full orchestration for one question. onChunk receives
// synthesis chunks strictly in arrival order. Exactly four completion calls
// are made per invocation: three specialists in parallel, then one streamed
// synthesis. Usage is recorded only after the synthesis succeeded.
func (s *Service) AskQuestion(ctx context.Context, req AskRequest, onChunk func(string)) (*Answer, error) {
	question := strings.TrimSpace(req.Text)
	if question == "" {
		return nil, fmt.Errorf("advisor.AskQuestion: %w", ErrEmptyQuestion)
	}

	// Quota gate: short-circuit before any completion call so an exhausted
	// user costs nothing.
	if req.UserID != nil {
		access, err := s.quota.CheckAccess(ctx, *req.UserID)
		if err != nil {
			return nil, fmt.Errorf("advisor.AskQuestion: %w", err)
		}
		if !access.HasAccess {
			return &Answer{
				Message: &domain.Message{
					ID:        uuid.New(),
					Role:      domain.RoleAssistant,
					Content:   LimitReachedText(req.Language),
					CreatedAt: time.Now(),
				},
				LimitReached: true,
			}, nil
		}
	}

	var session *domain.ChatSession
	if req.UserID != nil {
		var err error
		session, err = s.resolveSession(ctx, *req.UserID, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("advisor.AskQuestion: %w", err)
		}

		userMsg := &domain.Message{
			ID:        uuid.New(),
			ChatID:    session.ID,
			Role:      domain.RoleUser,
			Content:   question,
			CreatedAt: time.Now(),
		}
		if err := s.recorder.Append(ctx, userMsg); err != nil {
			// The UI must not believe the message was saved.
			return nil, fmt.Errorf("advisor.AskQuestion: persist question: %w", err)
		}
	}

	set := s.dispatcher.Dispatch(ctx, question, req.Language)
	contextDoc := BuildContextDocument(set)

	emit := s.chunkEmitter(ctx, session, onChunk)

	content, synthErr := s.synthesizer.Synthesize(ctx, contextDoc, question, req.Language, emit)
	if synthErr != nil {
		return s.settleFailure(ctx, session, req.Language, synthErr)
	}

	assistant := &domain.Message{
		ID:      uuid.New(),
		Role:    domain.RoleAssistant,
		Content: content,
		Metadata: map[string]string{
			domain.MetaTechnical:  set.Payload(RoleTechnical),
			domain.MetaMacro:      set.Payload(RoleMacro),
			domain.MetaStrategist: set.Payload(RoleStrategist),
		},
		CreatedAt: time.Now(),
	}

	answer := &Answer{Message: assistant}

	if session != nil {
		assistant.ChatID = session.ID
		answer.SessionID = &session.ID

		if err := s.recorder.Append(ctx, assistant); err != nil {
			return nil, fmt.Errorf("advisor.AskQuestion: persist answer: %w", err)
		}

		s.publishDone(ctx, session.ID)

		if err := s.quota.RecordUsage(ctx, *req.UserID, 1); err != nil {
			// The answer is already delivered and saved; a missed increment
			// is a soft quota overrun, not a failed request.
			log.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("usage increment failed after successful synthesis")
		}
	}

	return answer, nil
}

// CheckAccess exposes the quota view for the API layer.
func (s *Service) CheckAccess(ctx context.Context, userID uuid.UUID) (Access, error) {
	return s.quota.CheckAccess(ctx, userID)
}

// resolveSession picks the explicit session, falls back to the user's latest
// active one, and creates a fresh session when neither exists. An explicit
// session must exist and belong to the caller; writing into another user's
// conversation is never allowed.
func (s *Service) resolveSession(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*domain.ChatSession, error) {
	if sessionID != nil {
		session, err := s.recorder.Session(ctx, *sessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID == nil || *session.UserID != userID {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
		}
		return session, nil
	}

	session, err := s.recorder.LatestSession(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return s.recorder.CreateSession(ctx, userID)
}

// settleFailure handles a synthesis that produced zero chunks: the
// conversation still gets a record of the failure, usage is never recorded.
func (s *Service) settleFailure(ctx context.Context, session *domain.ChatSession, language string, cause error) (*Answer, error) {
	fallback := &domain.Message{
		ID:        uuid.New(),
		Role:      domain.RoleAssistant,
		Content:   UnableToProcessText(language),
		CreatedAt: time.Now(),
	}

	answer := &Answer{Message: fallback}

	if session != nil {
		fallback.ChatID = session.ID
		answer.SessionID = &session.ID

		if err := s.recorder.Append(ctx, fallback); err != nil {
			return nil, fmt.Errorf("advisor.AskQuestion: persist failure record: %w", err)
		}
	}

	return answer, fmt.Errorf("advisor.AskQuestion: %w", cause)
}

// chunkEmitter forwards chunks to the caller and, for persisted sessions,
// mirrors them onto the session's pub/sub channel.
func (s *Service) chunkEmitter(ctx context.Context, session *domain.ChatSession, onChunk func(string)) func(string) {
	return func(chunk string) {
		if onChunk != nil {
			onChunk(chunk)
		}

		if s.publisher == nil || session == nil {
			return
		}

		payload, err := json.Marshal(map[string]string{"type": "chunk", "content": chunk})
		if err != nil {
			return
		}
		if err := s.publisher.Publish(ctx, ChatChannel(session.ID), payload); err != nil {
			log.Debug().Err(err).Str("chat_id", session.ID.String()).Msg("chunk publish failed")
		}
	}
}

func (s *Service) publishDone(ctx context.Context, sessionID uuid.UUID) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]string{"type": "done"})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, ChatChannel(sessionID), payload); err != nil {
		log.Debug().Err(err).Str("chat_id", sessionID.String()).Msg("done publish failed")
	}
}
