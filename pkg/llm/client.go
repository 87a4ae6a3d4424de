package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/shiksha-labs/prashnagen/pkg/config"
)

const systemPrompt = "You are an experienced Indian school teacher who writes assessment questions. " +
	"Respond with a JSON array only, without commentary."

var (
	// ErrTimeout is returned when the completion did not finish before the deadline.
	ErrTimeout = errors.New("llm request timed out")
	// ErrEmptyCompletion is returned when the service answered without any text.
	ErrEmptyCompletion = errors.New("llm returned no choices")
)

// Generator turns a prompt into free text bounded by maxTokens.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient calls the chat completions API.
type OpenAIClient struct {
	api         chatCompleter
	model       string
	temperature float32
	timeout     time.Duration
}

// NewOpenAIClient builds a client from config; BaseURL allows compatible gateways.
func NewOpenAIClient(cfg config.OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{}
	return newWithAPI(openai.NewClientWithConfig(clientCfg), cfg), nil
}

func newWithAPI(api chatCompleter, cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		api:         api,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Generate sends the prompt as a single user turn and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Model reports the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
