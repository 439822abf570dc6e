package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// SnapshotSource is the slice of the finance service the snapshot tool
// needs.
type SnapshotSource interface {
	BusinessSnapshot(ctx context.Context, actor *models.User) (*services.BusinessSnapshot, error)
}

// RegisterSnapshotTool exposes the financial health summary to agents.
// Requires the finance-manager capability on the authenticated user.
func RegisterSnapshotTool(s *server.MCPServer, finance SnapshotSource) {
	tool := mcp.NewTool(
		"business_snapshot",
		mcp.WithDescription(
			"Get a snapshot of the business's financial health: income, expenses, "+
				"net cash flow over the recent period, plus active employee and pending "+
				"invoice counts. Use this before making recommendations that depend on "+
				"the company's current position.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}

		snapshot, err := finance.BusinessSnapshot(ctx, actor)
		if err != nil {
			return HandleServiceError(err, "snapshot_failed")
		}

		jsonResult, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
