package advisor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-invest/advisor/internal/advisor"
	"github.com/vantage-invest/advisor/internal/llm"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	t.Run("chunks arrive in order and concatenate to the final content", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return streamOf(deltas("Given ", "the ", "macro ", "backdrop...")...), nil
			},
		}

		var chunks []string
		s := advisor.NewSynthesizer(completer, time.Second)
		content, err := s.Synthesize(context.Background(), "doc", "q", "", func(c string) {
			chunks = append(chunks, c)
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Given ", "the ", "macro ", "backdrop..."}, chunks)
		assert.Equal(t, strings.Join(chunks, ""), content)
	})

	t.Run("nil onChunk is allowed", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return streamOf(deltas("hello")...), nil
			},
		}

		s := advisor.NewSynthesizer(completer, time.Second)
		content, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "hello", content)
	})

	t.Run("mid-stream failure keeps the partial text", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return streamOf(
					llm.StreamEvent{Delta: "The outlook "},
					llm.StreamEvent{Delta: "is mixed"},
					llm.StreamEvent{Err: errors.New("connection reset")},
				), nil
			},
		}

		s := advisor.NewSynthesizer(completer, time.Second)
		content, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		require.NoError(t, err, "partial delivery is not a failure")
		assert.Equal(t, "The outlook is mixed", content)
	})

	t.Run("failure before the first chunk is terminal", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return streamOf(llm.StreamEvent{Err: errors.New("upstream 500")}), nil
			},
		}

		s := advisor.NewSynthesizer(completer, time.Second)
		content, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		assert.Empty(t, content)
		assert.ErrorIs(t, err, advisor.ErrSynthesisFailed)
	})

	t.Run("stream open failure is terminal", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return nil, errors.New("dial tcp: refused")
			},
		}

		s := advisor.NewSynthesizer(completer, time.Second)
		_, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		assert.ErrorIs(t, err, advisor.ErrSynthesisFailed)
	})

	t.Run("stalled stream with no chunks fails with ErrStreamStalled", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return make(chan llm.StreamEvent), nil // never sends
			},
		}

		s := advisor.NewSynthesizer(completer, 20*time.Millisecond)
		_, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		assert.ErrorIs(t, err, advisor.ErrSynthesisFailed)
		assert.ErrorIs(t, err, advisor.ErrStreamStalled)
	})

	t.Run("stall after partial delivery keeps the partial text", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				ch := make(chan llm.StreamEvent, 1)
				ch <- llm.StreamEvent{Delta: "partial answer"}
				// never closed, never sends again
				return ch, nil
			},
		}

		s := advisor.NewSynthesizer(completer, 20*time.Millisecond)
		content, err := s.Synthesize(context.Background(), "doc", "q", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "partial answer", content)
	})

	t.Run("cancellation before the first chunk is terminal", func(t *testing.T) {
		t.Parallel()

		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, _ llm.Request) (<-chan llm.StreamEvent, error) {
				return make(chan llm.StreamEvent), nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := advisor.NewSynthesizer(completer, time.Second)
		_, err := s.Synthesize(ctx, "doc", "q", "", nil)

		assert.ErrorIs(t, err, advisor.ErrSynthesisFailed)
	})

	t.Run("prompt carries the desk notes and the question", func(t *testing.T) {
		t.Parallel()

		var captured llm.Request
		completer := &fakeCompleter{
			completeStreamFunc: func(_ context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
				captured = req
				return streamOf(deltas("ok")...), nil
			},
		}

		s := advisor.NewSynthesizer(completer, time.Second)
		_, err := s.Synthesize(context.Background(), "## Technical analysis\nfoo", "Should I sell?", "German", nil)

		require.NoError(t, err)
		assert.Contains(t, captured.User, "## Technical analysis\nfoo")
		assert.Contains(t, captured.User, "Client question: Should I sell?")
		assert.Contains(t, captured.System, "Respond in German.")
	})
}
