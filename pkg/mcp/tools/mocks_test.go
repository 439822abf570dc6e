package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

// newToolServer builds a bare MCP server for registering one tool under
// test.
func newToolServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}

// authedContext returns a context carrying an active user with the given
// role, the way the transport middleware prepares it.
func authedContext(role string) context.Context {
	actor := &models.User{
		ID:       uuid.New(),
		Email:    role + "@smartbiz.test",
		FullName: "Test " + role,
		Role:     role,
		IsActive: true,
	}
	return auth.WithActor(context.Background(), actor)
}

// toolCallResponse is the decoded JSON-RPC answer to a tools/call message.
type toolCallResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rawToolCall drives a registered tool through HandleMessage and decodes
// the full JSON-RPC response, protocol errors included.
func rawToolCall(t *testing.T, srv *server.MCPServer, ctx context.Context, name string, args map[string]any) toolCallResponse {
	t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	require.NoError(t, err)

	raw := srv.HandleMessage(ctx, body)
	resultBytes, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp toolCallResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return resp
}

// callTool is rawToolCall for the common case: the call must succeed at
// the protocol level. Returns the first text content and the IsError flag.
func callTool(t *testing.T, srv *server.MCPServer, ctx context.Context, name string, args map[string]any) (string, bool) {
	t.Helper()

	resp := rawToolCall(t, srv, ctx, name, args)
	if resp.Error != nil {
		t.Fatalf("tool call failed at protocol level: %s", resp.Error.Message)
	}
	require.NotEmpty(t, resp.Result.Content)
	require.Equal(t, "text", resp.Result.Content[0].Type)
	return resp.Result.Content[0].Text, resp.Result.IsError
}

// requestWithArgs builds a CallToolRequest carrying the given arguments.
func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// getTextContent extracts the text string from the first content item of
// a directly constructed tool result.
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	_ = json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}

// mockSnapshotSource implements SnapshotSource for testing.
type mockSnapshotSource struct {
	err       error
	snapshot  *services.BusinessSnapshot
	lastActor *models.User
}

func (m *mockSnapshotSource) BusinessSnapshot(_ context.Context, actor *models.User) (*services.BusinessSnapshot, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

// mockForecastSource implements ForecastSource for testing.
type mockForecastSource struct {
	err        error
	outlook    *models.RevenueOutlook
	lastPeriod string
}

func (m *mockForecastSource) RevenueForecast(_ context.Context, _ *models.User, period string) (*models.RevenueOutlook, error) {
	m.lastPeriod = period
	if m.err != nil {
		return nil, m.err
	}
	return m.outlook, nil
}

// mockLeadReader implements LeadReader for testing.
type mockLeadReader struct {
	err         error
	insightsErr error
	rescoreErr  error
	lead        *models.Lead
	insights    string
	outcomes    []services.RescoreOutcome
	lastID      uuid.UUID
	lastIDs     []uuid.UUID
}

func (m *mockLeadReader) GetLead(_ context.Context, _ *models.User, id uuid.UUID) (*models.Lead, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.lead, nil
}

func (m *mockLeadReader) LeadInsights(_ context.Context, _ *models.User) (string, error) {
	if m.insightsErr != nil {
		return "", m.insightsErr
	}
	return m.insights, nil
}

func (m *mockLeadReader) RescoreLeads(_ context.Context, _ *models.User, ids []uuid.UUID) ([]services.RescoreOutcome, error) {
	m.lastIDs = ids
	if m.rescoreErr != nil {
		return nil, m.rescoreErr
	}
	return m.outcomes, nil
}

// mockContentWriter implements ContentWriter for testing.
type mockContentWriter struct {
	err       error
	artifact  *models.Artifact
	lastInput services.GenerateContentInput
}

func (m *mockContentWriter) GenerateContent(_ context.Context, _ *models.User, in services.GenerateContentInput) (*models.Artifact, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}
