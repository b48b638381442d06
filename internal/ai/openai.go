// Package ai wraps the OpenAI chat completions API used by the assistant features.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const ocrPrompt = "Extract all text from this image. Return only the extracted text without any explanations or formatting. If there are multiple columns or sections, preserve the reading order."

var (
	// ErrNotConfigured is returned when no API key is supplied
	ErrNotConfigured = errors.New("openai: api key not configured")

	// ErrRateLimited is returned on HTTP 429
	ErrRateLimited = errors.New("openai: rate limit reached")

	// ErrInvalidKey is returned on HTTP 401
	ErrInvalidKey = errors.New("openai: invalid api key")
)

// APIError is any other non-200 response from OpenAI
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the chat completions endpoint. The API key comes with every call,
// so an SDK client is built per request over a shared http.Client.
type Client struct {
	baseURL     string
	chatModel   string
	visionModel string
	httpClient  *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(baseURL, chatModel, visionModel string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatModel:   chatModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) sdk(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(cfg)
}

// Complete sends a system and user prompt to the chat model and returns the trimmed reply
func (c *Client) Complete(ctx context.Context, apiKey, system, user string, maxTokens int, temperature float64) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	return c.chat(ctx, apiKey, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
}

// ExtractText runs OCR over an image data URL with the vision model
func (c *Client) ExtractText(ctx context.Context, apiKey, image string) (string, error) {
	return c.chat(ctx, apiKey, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: image}},
			},
		}},
		MaxTokens:   2000,
		Temperature: 0.1,
	})
}

func (c *Client) chat(ctx context.Context, apiKey string, req openai.ChatCompletionRequest) (string, error) {
	if apiKey == "" {
		return "", ErrNotConfigured
	}

	resp, err := c.sdk(apiKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps SDK errors onto the package errors by HTTP status
func classify(err error) error {
	status, message := 0, ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, message = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("openai request failed: %w", err)
	}

	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized:
		return ErrInvalidKey
	}
	if message == "" {
		message = "OpenAI API error: " + http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
