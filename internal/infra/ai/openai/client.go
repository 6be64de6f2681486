package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/chromaleap/internal/domain/ai"
)

// DefaultModel is used when neither config nor request name a model.
const DefaultModel = "google/gemini-2.5-pro"

// Client talks to any OpenAI-compatible chat completions gateway.
type Client struct {
	*openai.Client
	Model string
}

// NewClient builds a gateway client. An empty baseURL keeps the OpenAI default.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Complete(ctx context.Context, in ai.CompletionRequest) (string, error) {
	model := in.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = DefaultModel
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: in.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.SystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: in.UserText},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: in.ImageURL}},
				},
			},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", ai.FromStatus(statusOf(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ai.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// statusOf digs the HTTP status out of go-openai errors; 0 means no response.
func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
