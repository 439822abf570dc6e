package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

func TestSalesHandler_CreateDeal_Success(t *testing.T) {
	leadID := uuid.New()
	svc := &mockSalesService{deal: &models.Deal{ID: uuid.New(), LeadID: leadID, Title: "Initech expansion", Amount: 48000, Stage: models.StageQualification}}
	handler := NewSalesHandler(svc, zap.NewNop())

	body := []byte(fmt.Sprintf(`{"lead_id":%q,"title":"Initech expansion","amount":48000}`, leadID))
	req := withActor(httptest.NewRequest("POST", "/api/sales/deals", bytes.NewReader(body)), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.CreateDeal(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, leadID, svc.lastDealInput.LeadID)
	assert.Equal(t, 48000.0, svc.lastDealInput.Amount)

	var resp ApiResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Initech expansion", data["title"])
}

func TestSalesHandler_UpdateDealStage(t *testing.T) {
	svc := &mockSalesService{deal: &models.Deal{ID: uuid.New(), Title: "Initech expansion", Stage: models.StageNegotiation}}
	handler := NewSalesHandler(svc, zap.NewNop())

	id := uuid.New()
	req := withActor(httptest.NewRequest("PUT", "/api/sales/deals/"+id.String()+"/stage", bytes.NewReader([]byte(`{"stage":"negotiation"}`))), testActor(models.RoleSales))
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()

	handler.UpdateDealStage(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "negotiation", svc.lastStage)
}

func TestSalesHandler_UpdateDealStage_InvalidStage(t *testing.T) {
	svc := &mockSalesService{err: fmt.Errorf("unknown stage: %w", apperrors.ErrValidation)}
	handler := NewSalesHandler(svc, zap.NewNop())

	id := uuid.New()
	req := withActor(httptest.NewRequest("PUT", "/api/sales/deals/"+id.String()+"/stage", bytes.NewReader([]byte(`{"stage":"sideways"}`))), testActor(models.RoleSales))
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()

	handler.UpdateDealStage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "validation_error", errResp["error"])
}

func TestSalesHandler_CreatePipeline_Success(t *testing.T) {
	svc := &mockSalesService{artifact: &models.Artifact{ID: "pipe-1", Kind: models.ArtifactPipeline}}
	handler := NewSalesHandler(svc, zap.NewNop())

	body := []byte(`{"name":"Enterprise","stages":["qualification","negotiation","closed_won"],"target_revenue":250000}`)
	req := withActor(httptest.NewRequest("POST", "/api/sales/pipelines", bytes.NewReader(body)), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.CreatePipeline(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Enterprise", svc.lastPipelineInput.Name)
	assert.Len(t, svc.lastPipelineInput.Stages, 3)
}

func TestSalesHandler_CreatePipeline_NoStages(t *testing.T) {
	handler := NewSalesHandler(&mockSalesService{}, zap.NewNop())

	body := []byte(`{"name":"Enterprise","stages":[]}`)
	req := withActor(httptest.NewRequest("POST", "/api/sales/pipelines", bytes.NewReader(body)), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.CreatePipeline(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "validation_error", errResp["error"])
}

func TestSalesHandler_GetPipeline_NakedArtifact(t *testing.T) {
	svc := &mockSalesService{artifact: &models.Artifact{ID: "pipe-1", Kind: models.ArtifactPipeline, Payload: json.RawMessage(`{"name":"Enterprise"}`)}}
	handler := NewSalesHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest("GET", "/api/sales/pipelines/pipe-1", nil), testActor(models.RoleSales))
	req.SetPathValue("id", "pipe-1")
	rr := httptest.NewRecorder()

	handler.GetPipeline(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pipe-1", svc.lastPipelineID)

	var artifact models.Artifact
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&artifact))
	assert.Equal(t, "pipe-1", artifact.ID)
	assert.Equal(t, models.ArtifactPipeline, artifact.Kind)
}

func TestSalesHandler_CreateProposal_Success(t *testing.T) {
	customerID := uuid.New()
	svc := &mockSalesService{artifact: &models.Artifact{ID: "prop-1", Kind: models.ArtifactProposal, Status: models.ProposalDraft}}
	handler := NewSalesHandler(svc, zap.NewNop())

	body := []byte(fmt.Sprintf(`{"customer_id":%q,"product_data":{"sku":"ENG-1"},"custom_requirements":["on-prem deploy"]}`, customerID))
	req := withActor(httptest.NewRequest("POST", "/api/sales/proposals", bytes.NewReader(body)), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.CreateProposal(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp ApiResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "prop-1", data["id"])
}

func TestSalesHandler_UpdateProposalStatus(t *testing.T) {
	svc := &mockSalesService{artifact: &models.Artifact{ID: "prop-1", Kind: models.ArtifactProposal, Status: models.ProposalAccepted}}
	handler := NewSalesHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest("PUT", "/api/sales/proposals/prop-1/status", bytes.NewReader([]byte(`{"status":"accepted"}`))), testActor(models.RoleSales))
	req.SetPathValue("id", "prop-1")
	rr := httptest.NewRecorder()

	handler.UpdateProposalStatus(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "prop-1", svc.lastProposalID)
	assert.Equal(t, "accepted", svc.lastStatus)
}

func TestSalesHandler_PipelinePerformance_MissingID(t *testing.T) {
	handler := NewSalesHandler(&mockSalesService{}, zap.NewNop())

	req := withActor(httptest.NewRequest("GET", "/api/sales/analytics/pipeline-performance", nil), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.PipelinePerformance(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "missing_pipeline_id", errResp["error"])
}

func TestSalesHandler_PipelinePerformance(t *testing.T) {
	svc := &mockSalesService{insights: "Negotiation stage holds 60% of open value."}
	handler := NewSalesHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest("GET", "/api/sales/analytics/pipeline-performance?pipeline_id=pipe-1", nil), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.PipelinePerformance(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pipe-1", svc.lastPipelineID)

	var resp InsightResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Insights, "Negotiation stage")
}

func TestSalesHandler_CustomerInsights_MissingID(t *testing.T) {
	handler := NewSalesHandler(&mockSalesService{}, zap.NewNop())

	req := withActor(httptest.NewRequest("GET", "/api/sales/analytics/customer-insights", nil), testActor(models.RoleSales))
	rr := httptest.NewRecorder()

	handler.CustomerInsights(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "missing_customer_id", errResp["error"])
}

func TestSalesHandler_RevenueForecast(t *testing.T) {
	svc := &mockSalesService{outlook: &models.RevenueOutlook{PredictedRevenue: 82000, Confidence: 0.7, Factors: []string{"seasonal uptick"}}}
	handler := NewSalesHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest("GET", "/api/sales/revenue/forecast/quarter", nil), testActor(models.RoleSales))
	req.SetPathValue("period", "quarter")
	rr := httptest.NewRecorder()

	handler.RevenueForecast(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "quarter", svc.lastPeriod)

	var outlook models.RevenueOutlook
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&outlook))
	assert.Equal(t, 82000.0, outlook.PredictedRevenue)
	assert.Equal(t, 0.7, outlook.Confidence)
}
