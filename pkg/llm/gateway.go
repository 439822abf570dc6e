package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/logging"
	"github.com/smartbizhq/smartbiz-engine/pkg/retry"
)

// GatewayConfig tunes the gateway around a provider.
type GatewayConfig struct {
	// Temperature is the default for requests that do not set one.
	Temperature float32

	// Timeout bounds a single provider call. Zero applies no extra bound
	// beyond the caller's context.
	Timeout time.Duration

	// MaxRetries bounds retry attempts for retryable failures. Zero uses
	// the retry package default.
	MaxRetries int

	// Breaker overrides the default circuit breaker settings.
	Breaker *CircuitBreakerConfig
}

// Gateway fronts a Provider with retries, a circuit breaker, and validated
// structured output. Services depend on the Completer interface and receive
// the gateway by injection; nothing in the engine talks to a vendor SDK
// directly.
type Gateway struct {
	provider    Provider
	breaker     *CircuitBreaker
	retryCfg    *retry.Config
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGateway wraps provider with retry and circuit breaking.
func NewGateway(provider Provider, cfg GatewayConfig, logger *zap.Logger) *Gateway {
	breakerCfg := DefaultCircuitBreakerConfig()
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}

	return &Gateway{
		provider:    provider,
		breaker:     NewCircuitBreaker(breakerCfg),
		retryCfg:    retryCfg,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("llm.gateway"),
	}
}

// Complete implements Completer. Transient provider failures retry with
// exponential backoff; rate limits wait the provider-stated delay instead.
// Permanent failures and an open circuit return immediately.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return g.complete(ctx, req)
}

// CompleteJSON implements Completer. The reply must contain a JSON value
// matching schema; fenced or prose-wrapped JSON is extracted first. Shape
// violations map to ErrorTypeParse and are not retried.
func (g *Gateway) CompleteJSON(ctx context.Context, req CompletionRequest, schema string, out any) (*Completion, error) {
	req.JSONOnly = true

	completion, err := g.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	jsonStr, err := ExtractJSON(completion.Text)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeParse,
			Message:  "reply contained no JSON",
			Cause:    err,
			Provider: completion.Provider,
			Model:    completion.Model,
		}
	}

	if schema != "" {
		if err := ValidateJSON(jsonStr, schema); err != nil {
			return nil, err
		}
	}

	if out != nil {
		if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
			return nil, NewError(ErrorTypeParse, "failed to decode reply", false, err)
		}
	}

	completion.Text = jsonStr
	return completion, nil
}

// BreakerState exposes the circuit state for health reporting.
func (g *Gateway) BreakerState() CircuitState {
	return g.breaker.State()
}

// ProviderName returns the backend name.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

func (g *Gateway) complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if req.Temperature == nil {
		t := g.temperature
		req.Temperature = &t
	}

	var completion *Completion
	start := time.Now()

	err := retry.DoIfRetryable(ctx, g.retryCfg, func() error {
		if allowed, allowErr := g.breaker.Allow(); !allowed {
			return NewError(ErrorTypeUnavailable, "provider temporarily disabled", false, allowErr)
		}

		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		result, err := g.provider.Complete(callCtx, req)
		if err != nil {
			g.breaker.RecordFailure()
			g.logger.Warn("completion attempt failed",
				zap.String("provider", g.provider.Name()),
				zap.String("model", g.provider.Model()),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}

		g.breaker.RecordSuccess()
		completion = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("completion succeeded",
		zap.String("provider", completion.Provider),
		zap.String("model", completion.Model),
		zap.Int("input_tokens", completion.InputTokens),
		zap.Int("output_tokens", completion.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return completion, nil
}

var _ Completer = (*Gateway)(nil)
