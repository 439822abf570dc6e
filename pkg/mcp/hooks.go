package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
)

// CallTimer logs every tool call with its duration and outcome. Request
// bodies are captured by the HTTP middleware; the hooks only time the
// tool execution itself.
type CallTimer struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallTimer creates a CallTimer that records tool call timings.
func NewCallTimer(logger *zap.Logger) *CallTimer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallTimer{logger: logger.Named("mcp-calls")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (t *CallTimer) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(t.beforeCallTool)
	hooks.AddAfterCallTool(t.afterCallTool)
	hooks.AddOnError(t.onError)
	return hooks
}

func (t *CallTimer) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	t.startTimes.Store(id, time.Now())
}

func (t *CallTimer) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	start, _ := t.loadAndDeleteStart(id)
	fields := t.callFields(ctx, req, start)

	if result != nil && result.IsError {
		t.logger.Warn("Tool call returned error result", fields...)
		return
	}
	t.logger.Debug("Tool call completed", fields...)
}

func (t *CallTimer) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	start, _ := t.loadAndDeleteStart(id)
	fields := append(t.callFields(ctx, req, start), zap.Error(err))
	t.logger.Warn("Tool call failed", fields...)
}

func (t *CallTimer) callFields(ctx context.Context, req *mcplib.CallToolRequest, start time.Time) []zap.Field {
	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", time.Since(start)),
	}
	if actor, ok := auth.ActorFromContext(ctx); ok {
		fields = append(fields, zap.String("actor_id", actor.ID.String()))
	}
	return fields
}

func (t *CallTimer) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := t.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}
