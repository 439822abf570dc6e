package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// anthropicDefaultMaxTokens bounds replies when the caller sets no cap.
// The Messages API requires an explicit value.
const anthropicDefaultMaxTokens = 2048

// AnthropicProvider serves the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicProvider creates a provider backed by the Anthropic API.
// An empty endpoint uses the public base URL.
func NewAnthropicProvider(endpoint, apiKey, model string, logger *zap.Logger) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(endpoint))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		logger: logger.Named("llm.anthropic"),
	}, nil
}

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	prompt := req.Prompt
	msgReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	}
	if req.System != "" {
		msgReq.System = req.System
	}
	if req.Temperature != nil {
		msgReq.Temperature = req.Temperature
	}

	p.logger.Debug("provider request",
		zap.String("model", p.model),
		zap.Int("prompt_len", len(req.Prompt)))

	start := time.Now()

	resp, err := p.client.CreateMessages(ctx, msgReq)
	if err != nil {
		p.logger.Debug("provider request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyWithContext(err, p.Name(), p.model)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text = *block.Text
			break
		}
	}
	if text == "" {
		return nil, NewError(ErrorTypeUnavailable, "no text content in reply", true, nil)
	}

	return &Completion{
		Text:         text,
		Model:        p.model,
		Provider:     p.Name(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model implements Provider.
func (p *AnthropicProvider) Model() string {
	return p.model
}

var _ Provider = (*AnthropicProvider)(nil)
