package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// requireActor reads the authenticated user the transport middleware put
// in the context. A missing actor is a protocol error, not a tool error:
// the endpoint rejects unauthenticated requests before tools run.
func requireActor(ctx context.Context) (*models.User, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authentication required")
	}
	return actor, nil
}

// getOptionalString extracts an optional string parameter from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(string); ok {
			return val
		}
	}
	return ""
}

// getOptionalStringSlice extracts an optional string array parameter.
// Non-string elements are skipped.
func getOptionalStringSlice(req mcp.CallToolRequest, key string) []string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
