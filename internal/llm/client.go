// Package llm wraps the OpenAI-compatible completion endpoint behind a small
// interface the advisory engine consumes. It carries no local state beyond
// connection configuration; every call is a single attempt with no retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPrompt is returned when the user text is empty after trimming.
var ErrEmptyPrompt = errors.New("llm: empty prompt")

// Request is one completion call. System is fixed per agent role at
// construction time by the caller and is never user-controlled.
type Request struct {
	System string
	User   string
}

// StreamEvent is one element of a completion stream. Exactly one of Delta or
// Err is set; an Err event is terminal. The channel is closed at
// end-of-stream.
type StreamEvent struct {
	Delta string
	Err   error
}

// Completer issues completion calls, buffered or streamed. Streams are
// finite and non-restartable; chunks already delivered before a mid-stream
// failure are kept by consumers, not discarded.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	CompleteStream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// CompletionError carries the upstream HTTP status for transport failures.
type CompletionError struct {
	StatusCode int
	Message    string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("llm: completion failed [%d]: %s", e.StatusCode, e.Message)
}

// WithLanguage appends a language directive to a base system prompt. An empty
// or default directive leaves the prompt unchanged.
func WithLanguage(system, language string) string {
	language = strings.TrimSpace(language)
	if language == "" || strings.EqualFold(language, "en") || strings.EqualFold(language, "english") {
		return system
	}
	return system + "\n\nRespond in " + language + "."
}
