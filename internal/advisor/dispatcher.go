package advisor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vantage-invest/advisor/internal/llm"
)

// SpecialistResult is the settled outcome of one specialist call. Err is nil
// on success; on failure Content is empty and the context document substitutes
// the role's fallback text.
type SpecialistResult struct {
	Role    Role
	Content string
	Err     error
}

// SpecialistSet holds all three settled results in fixed role order.
type SpecialistSet struct {
	Technical  SpecialistResult
	Macro      SpecialistResult
	Strategist SpecialistResult
}

func (s *SpecialistSet) byRole(role Role) SpecialistResult {
	switch role {
	case RoleMacro:
		return s.Macro
	case RoleStrategist:
		return s.Strategist
	default:
		return s.Technical
	}
}

// Payload returns the raw specialist text (or the fallback) for persistence
// as message metadata.
func (s *SpecialistSet) Payload(role Role) string {
	r := s.byRole(role)
	if r.Err != nil {
		return fallbackText[role]
	}
	return r.Content
}

// Dispatcher fans a question out to the three specialist agents. Each call
// runs under its own timeout; one failure never cancels or delays the
// others. The dispatcher-level bound equals the per-call timeout because all
// three calls start simultaneously.
type Dispatcher struct {
	completer llm.Completer
	timeout   time.Duration
}

func NewDispatcher(completer llm.Completer, timeout time.Duration) *Dispatcher {
	return &Dispatcher{completer: completer, timeout: timeout}
}

// Dispatch invokes the three specialists concurrently and waits for all of
// them to settle (success or failure). It never returns an error: specialist
// failures are absorbed here and surface only as fallback slots.
func (d *Dispatcher) Dispatch(ctx context.Context, question, language string) *SpecialistSet {
	results := make([]SpecialistResult, len(specialistOrder))

	var wg sync.WaitGroup
	for i, role := range specialistOrder {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.invoke(ctx, role, question, language)
		}()
	}
	wg.Wait()

	set := &SpecialistSet{
		Technical:  results[0],
		Macro:      results[1],
		Strategist: results[2],
	}

	for _, r := range results {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("role", string(r.Role)).Msg("specialist call degraded to fallback")
		}
	}

	return set
}

func (d *Dispatcher) invoke(ctx context.Context, role Role, question, language string) SpecialistResult {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	content, err := d.completer.Complete(callCtx, llm.Request{
		System: llm.WithLanguage(systemPrompts[role], language),
		User:   question,
	})
	if err != nil {
		return SpecialistResult{Role: role, Err: err}
	}

	return SpecialistResult{Role: role, Content: content}
}

// BuildContextDocument renders the three slots under labeled headings in
// fixed order technical, macro, strategic, substituting fallback text for
// failed roles. Ordering is imposed here at assembly time, not at completion
// time.
func BuildContextDocument(set *SpecialistSet) string {
	var sb strings.Builder
	for i, role := range specialistOrder {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(sectionHeading[role])
		sb.WriteString("\n")
		sb.WriteString(set.Payload(role))
	}
	return sb.String()
}
