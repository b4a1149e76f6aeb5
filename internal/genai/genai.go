// Package genai provides chat completion access through an OpenAI-compatible API.
//
// The default endpoint is Groq's OpenAI-compatible API; any compatible
// backend can be selected with WithBaseURL.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation parameters, matching the service's production settings.
const (
	DefaultBaseURL             = "https://api.groq.com/openai/v1"
	DefaultModel               = "llama3-8b-8192"
	DefaultTemperature         = 0.5
	DefaultMaxCompletionTokens = 1024
)

// Sentinel errors for better error handling and testability.
var (
	// ErrAPIKeyNotSet indicates no API key was provided via options or environment.
	ErrAPIKeyNotSet = errors.New("GROQ_API_KEY not set")
	// ErrNoChoicesReturned indicates the backend returned an empty choice list.
	ErrNoChoicesReturned = errors.New("no choices returned")
)

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// Client wraps an OpenAI-compatible chat completion service.
type Client struct {
	chat                chatService
	model               string
	temperature         float64
	maxCompletionTokens int64
}

// ClientInterface abstracts the client for consumers and tests.
type ClientInterface interface {
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, opts ...CallOption) (string, error)
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Option configures the client at construction time.
type Option func(*clientOptions)

type clientOptions struct {
	apiKey              string
	baseURL             string
	model               string
	temperature         float64
	maxCompletionTokens int64
}

// WithAPIKey sets the API key, overriding the GROQ_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *clientOptions) { o.apiKey = key }
}

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithModel overrides the default completion model.
func WithModel(model string) Option {
	return func(o *clientOptions) { o.model = model }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *clientOptions) { o.temperature = t }
}

// WithMaxCompletionTokens overrides the default completion token budget.
func WithMaxCompletionTokens(n int64) Option {
	return func(o *clientOptions) { o.maxCompletionTokens = n }
}

// CallOption adjusts a single completion request.
type CallOption func(*openai.ChatCompletionNewParams)

// WithCallTemperature overrides the sampling temperature for one request.
// The companion persona runs hotter than the default analyst skills.
func WithCallTemperature(t float64) CallOption {
	return func(p *openai.ChatCompletionNewParams) { p.Temperature = openai.Float(t) }
}

// NewClient initializes a client from options, falling back to the
// GROQ_API_KEY environment variable for the key.
func NewClient(opts ...Option) (*Client, error) {
	cfg := clientOptions{
		baseURL:             DefaultBaseURL,
		model:               DefaultModel,
		temperature:         DefaultTemperature,
		maxCompletionTokens: DefaultMaxCompletionTokens,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.apiKey), option.WithBaseURL(cfg.baseURL))
	slog.Debug("genai.NewClient: client initialized", "base_url", cfg.baseURL, "model", cfg.model)
	return &Client{
		chat:                completionsAdapter{svc: cli.Chat.Completions},
		model:               cfg.model,
		temperature:         cfg.temperature,
		maxCompletionTokens: cfg.maxCompletionTokens,
	}, nil
}

// completionsAdapter adapts the SDK completion service to chatService.
type completionsAdapter struct {
	svc openai.ChatCompletionService
}

func (a completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// GenerateWithMessages runs a chat completion over the given message window
// and returns the generated text.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, opts ...CallOption) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxCompletionTokens),
	}
	for _, opt := range opts {
		opt(&params)
	}

	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// GeneratePrompt runs a single system+user completion. Skills use it when
// they assemble a one-shot analysis prompt rather than a conversation window.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
}
