package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/domain"
	"github.com/vantage-invest/advisor/internal/server/middleware"
)

type AskInput struct {
	Body struct {
		SessionID *uuid.UUID `json:"session_id,omitempty" doc:"Session to append to; omit to resume or create one"`
		Text      string     `json:"text" minLength:"1" maxLength:"4000" doc:"The question"`
		Language  string     `json:"language,omitempty" maxLength:"32" doc:"Preferred answer language, e.g. 'Spanish'"`
	}
}

// ChunkEvent carries one incremental piece of the synthesized answer.
type ChunkEvent struct {
	Content string `json:"content"`
}

// DoneEvent terminates the stream with the settled assistant message.
type DoneEvent struct {
	Message   *domain.Message `json:"message"`
	SessionID *uuid.UUID      `json:"session_id,omitempty"`
}

// LimitEvent signals the quota short-circuit; no completion calls were made.
type LimitEvent struct {
	Content string `json:"content"`
}

// ErrorEvent signals a terminal failure. Content carries the customer-facing
// fallback text when one was recorded.
type ErrorEvent struct {
	Content string `json:"content,omitempty"`
	Detail  string `json:"detail"`
}

var askEvents = map[string]any{
	"chunk": ChunkEvent{},
	"done":  DoneEvent{},
	"limit": LimitEvent{},
	"error": ErrorEvent{},
}

type QuotaOutput struct {
	Body advisor.Access
}

func RegisterAdvisorRoutes(api huma.API, svc AdvisorService) {
	sse.Register(api, huma.Operation{
		OperationID: "advisor-ask",
		Method:      http.MethodPost,
		Path:        "/advisor/ask",
		Summary:     "Ask the advisory engine a question (SSE stream)",
		Tags:        []string{"Advisor"},
	}, askEvents, func(ctx context.Context, input *AskInput, send sse.Sender) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			sendError(send, "", "missing user context")
			return
		}

		ask(ctx, svc, advisor.AskRequest{
			UserID:    &userID,
			SessionID: input.Body.SessionID,
			Text:      input.Body.Text,
			Language:  input.Body.Language,
		}, send)
	})

	huma.Register(api, huma.Operation{
		OperationID: "advisor-quota",
		Method:      http.MethodGet,
		Path:        "/advisor/quota",
		Summary:     "Current advisory usage and limit for the caller",
		Tags:        []string{"Advisor"},
	}, func(ctx context.Context, _ *struct{}) (*QuotaOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		access, err := svc.CheckAccess(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read quota", err)
		}

		return &QuotaOutput{Body: access}, nil
	})
}

// RegisterGuestAdvisorRoutes mounts the unauthenticated guest path: full
// orchestration, no quota, no persistence.
func RegisterGuestAdvisorRoutes(api huma.API, svc AdvisorService) {
	sse.Register(api, huma.Operation{
		OperationID: "advisor-guest-ask",
		Method:      http.MethodPost,
		Path:        "/advisor/guest/ask",
		Summary:     "Ask a question as a guest (SSE stream, nothing persisted)",
		Tags:        []string{"Advisor"},
	}, askEvents, func(ctx context.Context, input *AskInput, send sse.Sender) {
		ask(ctx, svc, advisor.AskRequest{
			Text:     input.Body.Text,
			Language: input.Body.Language,
		}, send)
	})
}

// ask runs one orchestration and maps its outcome onto the SSE event shape
// shared by the member and guest paths.
func ask(ctx context.Context, svc AdvisorService, req advisor.AskRequest, send sse.Sender) {
	answer, err := svc.AskQuestion(ctx, req, func(chunk string) {
		if sendErr := send.Data(ChunkEvent{Content: chunk}); sendErr != nil {
			log.Debug().Err(sendErr).Msg("sse chunk write failed")
		}
	})

	switch {
	case err != nil && answer != nil:
		// Synthesis produced nothing; a fallback record exists.
		sendError(send, answer.Message.Content, "unable to process the question")
	case err != nil:
		sendError(send, "", "request failed")
	case answer.LimitReached:
		if sendErr := send.Data(LimitEvent{Content: answer.Message.Content}); sendErr != nil {
			log.Debug().Err(sendErr).Msg("sse limit write failed")
		}
	default:
		if sendErr := send.Data(DoneEvent{Message: answer.Message, SessionID: answer.SessionID}); sendErr != nil {
			log.Debug().Err(sendErr).Msg("sse done write failed")
		}
	}
}

func sendError(send sse.Sender, content, detail string) {
	if err := send.Data(ErrorEvent{Content: content, Detail: detail}); err != nil {
		log.Debug().Err(err).Msg("sse error write failed")
	}
}
