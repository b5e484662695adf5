package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/vantage-invest/advisor/internal/domain"
	"github.com/vantage-invest/advisor/internal/server/middleware"
)

type CreateSessionOutput struct {
	Body *domain.ChatSession
}

type LatestSessionOutput struct {
	Body *domain.ChatSession
}

type SessionMessagesInput struct {
	ID uuid.UUID `path:"id" doc:"Session ID"`
}

type SessionMessagesOutput struct {
	Body []*domain.Message
}

type ArchiveSessionInput struct {
	ID uuid.UUID `path:"id" doc:"Session ID"`
}

type ArchiveSessionOutput struct {
	Body *domain.ChatSession
}

func RegisterSessionRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-session",
		Method:      http.MethodPost,
		Path:        "/sessions",
		Summary:     "Start a new conversation session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, _ *struct{}) (*CreateSessionOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		now := time.Now()
		session := &domain.ChatSession{
			ID:        uuid.New(),
			UserID:    &userID,
			Status:    domain.SessionStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.ChatSessions().Create(ctx, session); err != nil {
			return nil, huma.Error500InternalServerError("failed to create session", err)
		}

		return &CreateSessionOutput{Body: session}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "latest-session",
		Method:      http.MethodGet,
		Path:        "/sessions/latest",
		Summary:     "Get the caller's most recent active session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, _ *struct{}) (*LatestSessionOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		session, err := store.ChatSessions().LatestByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no active session")
			}
			return nil, huma.Error500InternalServerError("failed to get session", err)
		}

		return &LatestSessionOutput{Body: session}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-messages",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/messages",
		Summary:     "List a session's messages in creation order",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *SessionMessagesInput) (*SessionMessagesOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		session, err := store.ChatSessions().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to get session", err)
		}

		if session.UserID == nil || *session.UserID != userID {
			return nil, huma.Error403Forbidden("session belongs to another user")
		}

		msgs, err := store.Messages().ListByChat(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list messages", err)
		}

		return &SessionMessagesOutput{Body: msgs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{id}/archive",
		Summary:     "Archive a session",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *ArchiveSessionInput) (*ArchiveSessionOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		session, err := store.ChatSessions().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to get session", err)
		}

		if session.UserID == nil || *session.UserID != userID {
			return nil, huma.Error403Forbidden("session belongs to another user")
		}

		if err := store.ChatSessions().UpdateStatus(ctx, input.ID, domain.SessionStatusArchived); err != nil {
			return nil, huma.Error500InternalServerError("failed to archive session", err)
		}

		session.Status = domain.SessionStatusArchived
		return &ArchiveSessionOutput{Body: session}, nil
	})
}
