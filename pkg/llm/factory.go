package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/config"
)

// NewProvider creates the configured generation backend. The engine never
// assumes a specific vendor; the provider name selects one here and nowhere
// else.
func NewProvider(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIProvider(cfg.Endpoint, cfg.APIKey, cfg.Model, logger)
	case "anthropic":
		return NewAnthropicProvider(cfg.Endpoint, cfg.APIKey, cfg.Model, logger)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// NewGatewayFromConfig wires the configured provider into a gateway with
// retry and circuit breaking.
func NewGatewayFromConfig(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*Gateway, error) {
	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewGateway(provider, GatewayConfig{
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.MaxRetries,
	}, logger), nil
}
