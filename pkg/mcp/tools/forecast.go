package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// ForecastSource is the slice of the sales service the forecast tool needs.
type ForecastSource interface {
	RevenueForecast(ctx context.Context, actor *models.User, period string) (*models.RevenueOutlook, error)
}

type revenueForecastResponse struct {
	Period           string   `json:"period"`
	PredictedRevenue float64  `json:"predicted_revenue"`
	Confidence       float64  `json:"confidence"`
	Factors          []string `json:"factors"`
}

// RegisterForecastTool exposes the deal-book revenue projection to agents.
// Requires the sales capability on the authenticated user.
func RegisterForecastTool(s *server.MCPServer, sales ForecastSource) {
	tool := mcp.NewTool(
		"revenue_forecast",
		mcp.WithDescription(
			"Predict revenue for an upcoming period from the open deal book and "+
				"closed-won history. Returns the predicted amount, a confidence score "+
				"between 0 and 1, and the factors behind the projection.",
		),
		mcp.WithString(
			"period",
			mcp.Description("Forecast horizon: 'month', 'quarter', or 'year'. Defaults to 'quarter'."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}

		period := trimString(getOptionalString(req, "period"))
		if period == "" {
			period = "quarter"
		}

		outlook, err := sales.RevenueForecast(ctx, actor, period)
		if err != nil {
			return HandleServiceError(err, "forecast_failed")
		}

		jsonResult, err := json.Marshal(revenueForecastResponse{
			Period:           period,
			PredictedRevenue: outlook.PredictedRevenue,
			Confidence:       outlook.Confidence,
			Factors:          outlook.Factors,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal forecast: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
