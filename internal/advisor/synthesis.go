package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vantage-invest/advisor/internal/llm"
)

// ErrSynthesisFailed is returned when the synthesis stream fails before any
// chunk was delivered. Failures after partial delivery are not errors: the
// partial text already flushed to the caller is the final content.
var ErrSynthesisFailed = errors.New("advisor: synthesis failed")

// ErrStreamStalled is wrapped into ErrSynthesisFailed when no chunk arrives
// within the idle window.
var ErrStreamStalled = errors.New("advisor: synthesis stream stalled")

// Synthesizer runs the fourth, streaming completion that merges the
// specialist document into the customer-facing answer.
type Synthesizer struct {
	completer   llm.Completer
	idleTimeout time.Duration
}

func NewSynthesizer(completer llm.Completer, idleTimeout time.Duration) *Synthesizer {
	return &Synthesizer{completer: completer, idleTimeout: idleTimeout}
}

// Synthesize streams the final answer. onChunk is invoked for every chunk in
// arrival order; the concatenation of all chunks equals the returned content
// exactly. If the stream fails or stalls after partial delivery, the partial
// text is returned with a nil error. A failure before the first chunk
// returns ErrSynthesisFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, contextDoc, question, language string, onChunk func(string)) (string, error) {
	user := fmt.Sprintf("Desk notes:\n\n%s\n\n---\n\nClient question: %s", contextDoc, question)

	events, err := s.completer.CompleteStream(ctx, llm.Request{
		System: llm.WithLanguage(systemPrompts[RoleSynthesizer], language),
		User:   user,
	})
	if err != nil {
		return "", fmt.Errorf("advisor.Synthesize: %w: %w", ErrSynthesisFailed, err)
	}

	var sb strings.Builder

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.settle(sb.String(), ctx.Err())
		case <-idle.C:
			return s.settle(sb.String(), ErrStreamStalled)
		case ev, ok := <-events:
			if !ok {
				// Clean end-of-stream.
				return sb.String(), nil
			}
			if ev.Err != nil {
				return s.settle(sb.String(), ev.Err)
			}

			sb.WriteString(ev.Delta)
			if onChunk != nil {
				onChunk(ev.Delta)
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)
		}
	}
}

// settle applies the partial-result rule: delivered chunks are kept, a
// zero-chunk failure is terminal.
func (s *Synthesizer) settle(partial string, cause error) (string, error) {
	if partial != "" {
		return partial, nil
	}
	return "", fmt.Errorf("advisor.Synthesize: %w: %w", ErrSynthesisFailed, cause)
}
