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

// ContentWriter is the slice of the marketing service the content tool
// needs.
type ContentWriter interface {
	GenerateContent(ctx context.Context, actor *models.User, in services.GenerateContentInput) (*models.Artifact, error)
}

// RegisterContentTool exposes marketing content generation to agents.
// Requires the marketing capability on the authenticated user.
func RegisterContentTool(s *server.MCPServer, marketing ContentWriter) {
	tool := mcp.NewTool(
		"generate_content",
		mcp.WithDescription(
			"Generate marketing copy on a topic and score it for SEO in one call. "+
				"The stored document carries the copy, its metadata, the SEO score, and "+
				"suggested keywords. Returns the stored document.",
		),
		mcp.WithString(
			"topic",
			mcp.Required(),
			mcp.Description("What the content is about (e.g., 'automated invoicing for small retailers')"),
		),
		mcp.WithString(
			"content_type",
			mcp.Description("Optional - kind of copy: 'blog_post', 'social_media', 'email', 'ad_copy'"),
		),
		mcp.WithString(
			"target_audience",
			mcp.Description("Optional - who the copy is written for"),
		),
		mcp.WithString(
			"tone",
			mcp.Description("Optional - writing tone (e.g., 'professional', 'casual')"),
		),
		mcp.WithArray(
			"keywords",
			mcp.Description("Optional - keywords the copy should work in"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString(
			"length",
			mcp.Description("Optional - target length: 'short', 'medium', 'long'"),
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

		topic, err := req.RequireString("topic")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		topic = trimString(topic)
		if topic == "" {
			return NewErrorResult("invalid_parameters", "parameter 'topic' cannot be empty"), nil
		}

		in := services.GenerateContentInput{
			Topic:          topic,
			ContentType:    trimString(getOptionalString(req, "content_type")),
			TargetAudience: trimString(getOptionalString(req, "target_audience")),
			Tone:           trimString(getOptionalString(req, "tone")),
			Keywords:       getOptionalStringSlice(req, "keywords"),
			Length:         trimString(getOptionalString(req, "length")),
		}

		artifact, err := marketing.GenerateContent(ctx, actor, in)
		if err != nil {
			return HandleServiceError(err, "generate_content_failed")
		}

		jsonResult, err := json.Marshal(artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
