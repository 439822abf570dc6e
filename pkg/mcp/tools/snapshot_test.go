package tools

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/services"
)

func TestSnapshotTool_ReturnsSnapshot(t *testing.T) {
	svc := &mockSnapshotSource{snapshot: &services.BusinessSnapshot{
		PeriodDays:      30,
		Income:          52000,
		Expenses:        31000,
		NetCashFlow:     21000,
		ActiveEmployees: 12,
		PendingInvoices: 4,
	}}
	srv := newToolServer()
	RegisterSnapshotTool(srv, svc)

	text, isError := callTool(t, srv, authedContext(models.RoleFinanceManager), "business_snapshot", nil)
	require.False(t, isError, "unexpected error result: %s", text)

	var snapshot services.BusinessSnapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snapshot))
	assert.Equal(t, 52000.0, snapshot.Income)
	assert.Equal(t, 21000.0, snapshot.NetCashFlow)
	assert.Equal(t, 12, snapshot.ActiveEmployees)

	require.NotNil(t, svc.lastActor)
	assert.Equal(t, models.RoleFinanceManager, svc.lastActor.Role)
}

func TestSnapshotTool_ForbiddenIsActionable(t *testing.T) {
	svc := &mockSnapshotSource{err: fmt.Errorf("finance dashboard requires finance-manager: %w", apperrors.ErrForbidden)}
	srv := newToolServer()
	RegisterSnapshotTool(srv, svc)

	text, isError := callTool(t, srv, authedContext(models.RoleSupport), "business_snapshot", nil)
	require.True(t, isError)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &errResp))
	assert.Equal(t, "forbidden", errResp.Code)
	assert.Contains(t, errResp.Message, "finance-manager")
}

func TestSnapshotTool_ProviderOutageIsProtocolError(t *testing.T) {
	svc := &mockSnapshotSource{err: fmt.Errorf("compute stats: %w", apperrors.ErrInternal)}
	srv := newToolServer()
	RegisterSnapshotTool(srv, svc)

	resp := rawToolCall(t, srv, authedContext(models.RoleFinanceManager), "business_snapshot", nil)
	assert.True(t, resp.Error != nil || resp.Result.IsError,
		"system fault must not pass as a clean result")
}
