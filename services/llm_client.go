package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yeremiapane/restaurant-ordering/config"
)

// Completer sends one system/user prompt pair to a chat model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAICompleter talks to any OpenAI-compatible chat endpoint (DeepSeek by default).
type OpenAICompleter struct {
	client *openai.Client
	cfg    config.LLMConfig
}

// NewOpenAICompleter builds a client from cfg. httpClient may be nil.
func NewOpenAICompleter(cfg config.LLMConfig, httpClient *http.Client) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", &UpstreamError{Kind: UpstreamNotConfigured}
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", classifyUpstream(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &UpstreamError{Kind: UpstreamEmpty}
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyUpstream maps a client error onto an UpstreamKind. Anything without
// an HTTP status is treated as a connection failure.
func classifyUpstream(err error) *UpstreamError {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &UpstreamError{Kind: UpstreamRateLimited, StatusCode: status, Err: err}
	case status != 0:
		return &UpstreamError{Kind: UpstreamAPIStatus, StatusCode: status, Err: err}
	}
	return &UpstreamError{Kind: UpstreamConnection, Err: err}
}
