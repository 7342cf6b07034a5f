package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyReply means the endpoint answered 2xx but without usable content.
var ErrEmptyReply = errors.New("empty reply from model")

// TransportError is returned for any non-2xx response.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion endpoint returned %d: %s", e.Status, e.Body)
}

// ChatClient talks to an OpenAI-compatible chat completion endpoint.
type ChatClient struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

type ClientOptions struct {
	BaseURL     string // e.g. "https://api.openai.com/v1"
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func NewChatClient(o ClientOptions) *ChatClient {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(o.APIKey)
	if base := strings.TrimRight(o.BaseURL, "/"); base != "" {
		cfg.BaseURL = base
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &ChatClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       o.Model,
		temperature: o.Temperature,
		maxTokens:   o.MaxTokens,
	}
}

// Complete sends one user message and returns the trimmed reply text.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", transportError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// transportError maps go-openai's status errors onto *TransportError and
// wraps everything else.
func transportError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := strings.TrimSpace(string(reqErr.Body))
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &TransportError{Status: reqErr.HTTPStatusCode, Body: body}
	}
	return fmt.Errorf("completion request: %w", err)
}
