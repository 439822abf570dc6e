package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// LeadReader is the slice of the CRM service the lead tools need.
type LeadReader interface {
	GetLead(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Lead, error)
	LeadInsights(ctx context.Context, actor *models.User) (string, error)
	RescoreLeads(ctx context.Context, actor *models.User, ids []uuid.UUID) ([]services.RescoreOutcome, error)
}

type leadScoreResponse struct {
	LeadID     string   `json:"lead_id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Score      int      `json:"score"`
	Segment    string   `json:"segment,omitempty"`
	NextAction string   `json:"next_action,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type insightsResponse struct {
	Insights string `json:"insights"`
}

type rescoreResponse struct {
	Scored int                       `json:"scored"`
	Failed int                       `json:"failed"`
	Leads  []services.RescoreOutcome `json:"leads"`
}

// RegisterLeadTools exposes lead scoring and lead-book analysis to agents.
func RegisterLeadTools(s *server.MCPServer, crm LeadReader) {
	registerLeadScoreTool(s, crm)
	registerLeadInsightsTool(s, crm)
	registerLeadRescoreTool(s, crm)
}

func registerLeadScoreTool(s *server.MCPServer, crm LeadReader) {
	tool := mcp.NewTool(
		"get_lead_score",
		mcp.WithDescription(
			"Get the stored qualification score for a lead: a 0-100 score, the "+
				"segment (hot/warm/cold), and the recommended next action. Leads are "+
				"scored when created and re-scored when their firmographics change.",
		),
		mcp.WithString(
			"lead_id",
			mcp.Required(),
			mcp.Description("UUID of the lead to look up"),
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

		idStr, err := req.RequireString("lead_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		id, err := uuid.Parse(trimString(idStr))
		if err != nil {
			return NewErrorResult(
				"invalid_parameters",
				fmt.Sprintf("invalid lead_id format: %q is not a valid UUID", idStr),
			), nil
		}

		lead, err := crm.GetLead(ctx, actor, id)
		if err != nil {
			return HandleServiceError(err, "get_lead_failed")
		}
		if lead.AIScore == nil {
			return NewErrorResult("lead_not_scored", "lead has no stored score"), nil
		}

		resp := leadScoreResponse{
			LeadID:     lead.ID.String(),
			Name:       lead.Name,
			Status:     lead.Status,
			Score:      *lead.AIScore,
			Confidence: lead.AIConfidence,
		}
		if lead.AISegment != nil {
			resp.Segment = *lead.AISegment
		}
		if lead.AINextAction != nil {
			resp.NextAction = *lead.AINextAction
		}

		jsonResult, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal lead score: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerLeadRescoreTool(s *server.MCPServer, crm LeadReader) {
	tool := mcp.NewTool(
		"score_leads",
		mcp.WithDescription(
			"Re-score leads in bulk. Pass lead_ids to re-score specific leads, or "+
				"call with no arguments to score every lead that has no stored score "+
				"yet. Scoring calls run concurrently; each lead succeeds or fails on "+
				"its own and the reply lists both.",
		),
		mcp.WithArray(
			"lead_ids",
			mcp.Description("Optional - UUIDs of leads to re-score. Empty scores all unscored leads."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}

		var ids []uuid.UUID
		for _, raw := range getOptionalStringSlice(req, "lead_ids") {
			id, err := uuid.Parse(trimString(raw))
			if err != nil {
				return NewErrorResult(
					"invalid_parameters",
					fmt.Sprintf("invalid lead_id format: %q is not a valid UUID", raw),
				), nil
			}
			ids = append(ids, id)
		}

		outcomes, err := crm.RescoreLeads(ctx, actor, ids)
		if err != nil {
			return HandleServiceError(err, "rescore_failed")
		}

		resp := rescoreResponse{Leads: outcomes}
		for _, outcome := range outcomes {
			if outcome.Error != "" {
				resp.Failed++
				continue
			}
			resp.Scored++
		}

		jsonResult, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal re-score outcome: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerLeadInsightsTool(s *server.MCPServer, crm LeadReader) {
	tool := mcp.NewTool(
		"lead_insights",
		mcp.WithDescription(
			"Analyze the whole lead book: conversion rates by source, pipeline "+
				"health, and prioritization advice as free text. Requires the sales "+
				"capability.",
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

		insights, err := crm.LeadInsights(ctx, actor)
		if err != nil {
			return HandleServiceError(err, "lead_insights_failed")
		}

		jsonResult, err := json.Marshal(insightsResponse{Insights: insights})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal insights: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
