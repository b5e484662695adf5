package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
// Model, temperature and max tokens are fixed at construction; this layer
// performs no model routing.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ Completer = (*OpenAIClient)(nil)

func NewOpenAIClient(baseURL, apiKey, model string, temperature float32, maxTokens int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete issues a buffered completion and returns the full text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	oaReq, err := c.buildRequest(req, false)
	if err != nil {
		return "", fmt.Errorf("llm.Complete: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		return "", fmt.Errorf("llm.Complete: %w", mapError(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm.Complete: %w", &CompletionError{StatusCode: 0, Message: "response contained no choices"})
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream issues a streaming completion. The returned channel carries
// one event per delta and is closed when the upstream stream ends. A
// mid-stream failure is delivered as a terminal Err event after whatever
// deltas already arrived. Malformed frames are skipped by the SSE decoder.
func (c *OpenAIClient) CompleteStream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	oaReq, err := c.buildRequest(req, true)
	if err != nil {
		return nil, fmt.Errorf("llm.CompleteStream: %w", err)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, oaReq)
	if err != nil {
		return nil, fmt.Errorf("llm.CompleteStream: %w", mapError(err))
	}

	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer stream.Close()

		for {
			resp, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				select {
				case events <- StreamEvent{Err: mapError(recvErr)}:
				case <-ctx.Done():
				}
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}

			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			select {
			case events <- StreamEvent{Delta: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *OpenAIClient) buildRequest(req Request, stream bool) (openai.ChatCompletionRequest, error) {
	user := strings.TrimSpace(req.User)
	if user == "" {
		return openai.ChatCompletionRequest{}, ErrEmptyPrompt
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}, nil
}

// mapError converts go-openai errors into CompletionError so callers can
// branch on HTTP status without importing the SDK.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &CompletionError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &CompletionError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return err
}
