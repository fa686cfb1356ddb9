package llm

import (
	"context"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lecternai/lectern/model"
)

const (
	// DefaultModel is the chat model used when none is configured
	DefaultModel = "deepseek/deepseek-chat"
	// DefaultMaxTokens caps completion length when the caller passes 0
	DefaultMaxTokens = 2000

	openRouterBaseURL = "https://openrouter.ai/api/v1"
	deepSeekBaseURL   = "https://api.deepseek.com/v1"
)

// Completer is the chat-completion capability consumed by the orchestrator
type Completer interface {
	Complete(ctx context.Context, system string, user string, maxTokens int) (string, error)
}

// Config configures the chat-completion client. Zero values fall back to
// environment variables and defaults.
type Config struct {
	// APIKey for the provider; falls back to LECTERN_LLM_API_KEY
	APIKey string
	// BaseURL of an OpenAI-compatible endpoint; falls back to
	// LECTERN_LLM_BASE_URL, then to a provider inferred from the key
	BaseURL string
	// Model name; falls back to DefaultModel
	Model string
	// MaxTokens default for calls that pass 0
	MaxTokens int
}

// Client talks to an OpenAI-compatible chat-completion endpoint
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewClient creates a chat-completion client. Keys with the "sk-or-" prefix
// route to OpenRouter, anything else to DeepSeek, unless a base URL is set
// explicitly.
func NewClient(config Config) (*Client, error) {
	key := strings.TrimSpace(config.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("LECTERN_LLM_API_KEY"))
	}
	if key == "" {
		return nil, &model.ConfigurationError{Setting: "LECTERN_LLM_API_KEY"}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("LECTERN_LLM_BASE_URL")
	}
	if baseURL == "" {
		if strings.HasPrefix(key, "sk-or-") {
			baseURL = openRouterBaseURL
		} else {
			baseURL = deepSeekBaseURL
		}
	}

	clientConfig := openai.DefaultConfig(key)
	clientConfig.BaseURL = baseURL

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     modelName,
		maxTokens: maxTokens,
	}, nil
}

// Complete sends one system+user exchange and returns the completion text
func (c *Client) Complete(ctx context.Context, system string, user string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	messages := []openai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", &model.ProviderError{Provider: "llm", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &model.ProviderError{Provider: "llm", Err: errEmptyResponse}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
