package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider serves OpenAI and OpenAI-compatible endpoints (vLLM,
// LiteLLM, self-hosted proxies).
type OpenAIProvider struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewOpenAIProvider creates a provider backed by an OpenAI-compatible API.
// An empty endpoint uses the public OpenAI base URL.
func NewOpenAIProvider(endpoint, apiKey, model string, logger *zap.Logger) (*OpenAIProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(endpoint, "/")
	}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: clientConfig.BaseURL,
		model:    model,
		logger:   logger.Named("llm.openai"),
	}, nil
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.JSONOnly {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	p.logger.Debug("provider request",
		zap.String("model", p.model),
		zap.Int("prompt_len", len(req.Prompt)))

	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		p.logger.Debug("provider request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyWithContext(err, p.Name(), p.model)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(ErrorTypeUnavailable, "no choices in reply", true, nil)
	}

	return &Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        p.model,
		Provider:     p.Name(),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model implements Provider.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Endpoint returns the resolved base URL.
func (p *OpenAIProvider) Endpoint() string {
	return p.endpoint
}

var _ Provider = (*OpenAIProvider)(nil)
