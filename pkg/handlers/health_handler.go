package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/config"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
)

// pingTimeout bounds each store ping so a hung backend cannot stall the
// probe.
const pingTimeout = 2 * time.Second

// Pinger reports liveness of one backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// AIStatus reports the model gateway's identity and breaker state.
type AIStatus interface {
	ProviderName() string
	BreakerState() llm.CircuitState
}

// AIHealth is the model gateway section of the health report.
type AIHealth struct {
	Provider       string `json:"provider"`
	CircuitBreaker string `json:"circuit_breaker"`
}

// HealthResponse is the body of the liveness probe. Checks maps each store
// to "ok" or its ping error.
type HealthResponse struct {
	Status      string            `json:"status"`
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	GoVersion   string            `json:"go_version"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
	AI          *AIHealth         `json:"ai,omitempty"`
}

// HealthHandler handles the liveness endpoint.
type HealthHandler struct {
	cfg    *config.Config
	stores map[string]Pinger
	ai     AIStatus
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler. stores maps component
// names to their pingers; ai may be nil when no gateway is configured.
func NewHealthHandler(cfg *config.Config, stores map[string]Pinger, ai AIStatus, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:    cfg,
		stores: stores,
		ai:     ai,
		logger: logger,
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
// The probe stays public and unthrottled.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health handles GET /health requests. A failing store ping turns the
// probe 503; an open AI breaker only degrades the report, the service can
// still do CRUD without a model.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	checks := make(map[string]string, len(h.stores))
	for name, store := range h.stores {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := store.Ping(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("Store ping failed", zap.String("store", name), zap.Error(err))
			checks[name] = err.Error()
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	var ai *AIHealth
	if h.ai != nil {
		ai = &AIHealth{
			Provider:       h.ai.ProviderName(),
			CircuitBreaker: h.ai.BreakerState().String(),
		}
		if h.ai.BreakerState() != llm.CircuitClosed && status == "ok" {
			status = "degraded"
		}
	}

	resp := HealthResponse{
		Status:      status,
		Service:     "smartbiz-engine",
		Version:     h.cfg.Version,
		GoVersion:   runtime.Version(),
		Environment: h.cfg.Env,
		Checks:      checks,
		AI:          ai,
	}

	if err := WriteJSON(w, httpStatus, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
