package advisor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/llm"
)

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("all specialists succeed", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeFunc: func(_ context.Context, req llm.Request) (string, error) {
				switch {
				case strings.Contains(req.System, "technical analysis desk"):
					return "RSI oversold", nil
				case strings.Contains(req.System, "macroeconomic"):
					return "Rates on hold", nil
				default:
					return "Size positions small", nil
				}
			},
		}

		d := advisor.NewDispatcher(completer, time.Second)
		set := d.Dispatch(context.Background(), "Should I buy?", "")

		require.NotNil(t, set)
		assert.NoError(t, set.Technical.Err)
		assert.NoError(t, set.Macro.Err)
		assert.NoError(t, set.Strategist.Err)
		assert.Equal(t, "RSI oversold", set.Technical.Content)
		assert.Equal(t, "Rates on hold", set.Macro.Content)
		assert.Equal(t, "Size positions small", set.Strategist.Content)
	})

	t.Run("one failure degrades to fallback without touching the others", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("upstream 502")
		completer := &fakeCompleter{
			completeFunc: func(_ context.Context, req llm.Request) (string, error) {
				if strings.Contains(req.System, "macroeconomic") {
					return "", boom
				}
				return "fine", nil
			},
		}

		d := advisor.NewDispatcher(completer, time.Second)
		set := d.Dispatch(context.Background(), "q", "")

		assert.NoError(t, set.Technical.Err)
		assert.ErrorIs(t, set.Macro.Err, boom)
		assert.NoError(t, set.Strategist.Err)

		assert.Equal(t, "fine", set.Payload(advisor.RoleTechnical))
		assert.Equal(t, "Macro analysis unavailable.", set.Payload(advisor.RoleMacro))
		assert.Equal(t, "fine", set.Payload(advisor.RoleStrategist))
	})

	t.Run("all failures still settle", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeFunc: func(_ context.Context, _ llm.Request) (string, error) {
				return "", errors.New("down")
			},
		}

		d := advisor.NewDispatcher(completer, time.Second)
		set := d.Dispatch(context.Background(), "q", "")

		require.NotNil(t, set)
		assert.Equal(t, "Technical analysis unavailable.", set.Payload(advisor.RoleTechnical))
		assert.Equal(t, "Macro analysis unavailable.", set.Payload(advisor.RoleMacro))
		assert.Equal(t, "Strategy analysis unavailable.", set.Payload(advisor.RoleStrategist))
	})

	t.Run("calls run concurrently", func(t *testing.T) {
		t.Parallel()

		// Each call blocks until all three have started; the test only
		// completes if they are actually in flight simultaneously.
		var mu sync.Mutex
		started := 0
		release := make(chan struct{})

		completer := &fakeCompleter{
			completeFunc: func(ctx context.Context, _ llm.Request) (string, error) {
				mu.Lock()
				started++
				if started == 3 {
					close(release)
				}
				mu.Unlock()

				select {
				case <-release:
					return "ok", nil
				case <-ctx.Done():
					return "", ctx.Err()
				}
			},
		}

		d := advisor.NewDispatcher(completer, 2*time.Second)
		set := d.Dispatch(context.Background(), "q", "")

		assert.NoError(t, set.Technical.Err)
		assert.NoError(t, set.Macro.Err)
		assert.NoError(t, set.Strategist.Err)
	})

	t.Run("per-call timeout degrades the slow role only", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeFunc: func(ctx context.Context, req llm.Request) (string, error) {
				if strings.Contains(req.System, "strategy and risk desk") {
					<-ctx.Done()
					return "", ctx.Err()
				}
				return "fast", nil
			},
		}

		d := advisor.NewDispatcher(completer, 20*time.Millisecond)
		set := d.Dispatch(context.Background(), "q", "")

		assert.NoError(t, set.Technical.Err)
		assert.NoError(t, set.Macro.Err)
		assert.ErrorIs(t, set.Strategist.Err, context.DeadlineExceeded)
	})

	t.Run("language directive reaches every specialist prompt", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var systems []string

		completer := &fakeCompleter{
			completeFunc: func(_ context.Context, req llm.Request) (string, error) {
				mu.Lock()
				systems = append(systems, req.System)
				mu.Unlock()
				return "ok", nil
			},
		}

		d := advisor.NewDispatcher(completer, time.Second)
		d.Dispatch(context.Background(), "q", "Spanish")

		require.Len(t, systems, 3)
		for _, s := range systems {
			assert.Contains(t, s, "Respond in Spanish.")
		}
	})
}

func TestBuildContextDocument(t *testing.T) {
	t.Parallel()

	t.Run("fixed order regardless of content", func(t *testing.T) {
		t.Parallel()

		set := &advisor.SpecialistSet{
			Technical:  advisor.SpecialistResult{Role: advisor.RoleTechnical, Content: "chart says up"},
			Macro:      advisor.SpecialistResult{Role: advisor.RoleMacro, Content: "rates falling"},
			Strategist: advisor.SpecialistResult{Role: advisor.RoleStrategist, Content: "hedge it"},
		}

		doc := advisor.BuildContextDocument(set)

		ti := strings.Index(doc, "## Technical analysis")
		mi := strings.Index(doc, "## Macro and news analysis")
		si := strings.Index(doc, "## Strategy and risk framing")
		require.GreaterOrEqual(t, ti, 0)
		require.Greater(t, mi, ti)
		require.Greater(t, si, mi)

		assert.Contains(t, doc, "chart says up")
		assert.Contains(t, doc, "rates falling")
		assert.Contains(t, doc, "hedge it")
	})

	t.Run("failed slot renders its fallback under the same heading", func(t *testing.T) {
		t.Parallel()

		set := &advisor.SpecialistSet{
			Technical:  advisor.SpecialistResult{Role: advisor.RoleTechnical, Err: errors.New("timeout")},
			Macro:      advisor.SpecialistResult{Role: advisor.RoleMacro, Content: "macro text"},
			Strategist: advisor.SpecialistResult{Role: advisor.RoleStrategist, Content: "risk text"},
		}

		doc := advisor.BuildContextDocument(set)

		assert.Contains(t, doc, "## Technical analysis\nTechnical analysis unavailable.")
		assert.Contains(t, doc, "macro text")
		assert.Contains(t, doc, "risk text")
	})

	t.Run("all slots always present", func(t *testing.T) {
		t.Parallel()

		doc := advisor.BuildContextDocument(&advisor.SpecialistSet{
			Technical:  advisor.SpecialistResult{Err: errors.New("a")},
			Macro:      advisor.SpecialistResult{Err: errors.New("b")},
			Strategist: advisor.SpecialistResult{Err: errors.New("c")},
		})

		assert.Contains(t, doc, "## Technical analysis")
		assert.Contains(t, doc, "## Macro and news analysis")
		assert.Contains(t, doc, "## Strategy and risk framing")
	})
}
