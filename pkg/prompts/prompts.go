// Package prompts assembles every provider prompt in the engine. Each kind
// pairs a typed parameter struct with a deterministic builder: identical
// parameters always produce identical text. Nested data is embedded as
// serialized JSON, lists join with ", ".
package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
)

// Kind identifies one prompt template.
type Kind string

// Prompt kinds. Structured kinds end the prompt with a JSON contract; the
// rest produce free-form text.
const (
	KindLeadScoring          Kind = "lead-scoring"
	KindDealPriority         Kind = "deal-priority"
	KindRevenueForecast      Kind = "revenue-forecast"
	KindContentGeneration    Kind = "content-generation"
	KindSEOAnalysis          Kind = "seo-analysis"
	KindProposalGeneration   Kind = "proposal-generation"
	KindTicketInsight        Kind = "ticket-insight"
	KindWorkflowValidation   Kind = "workflow-validation"
	KindExecutionPlan        Kind = "workflow-execution-plan"
	KindCampaignStrategy     Kind = "campaign-strategy"
	KindPipelineStrategy     Kind = "pipeline-strategy"
	KindCampaignPerformance  Kind = "campaign-performance"
	KindPipelinePerformance  Kind = "pipeline-performance"
	KindCustomerInsights     Kind = "customer-insights"
	KindLeadInsights         Kind = "lead-insights"
	KindCustomerValue        Kind = "customer-value"
	KindTaskInsights         Kind = "task-insights"
	KindWorkloadOptimization Kind = "workload-optimization"
	KindTicketAnalytics      Kind = "ticket-analytics"
	KindSupportScore         Kind = "support-score"
	KindWorkflowPerformance  Kind = "workflow-performance"
	KindWorkflowOptimization Kind = "workflow-optimization"
	KindTicketSentiment      Kind = "ticket-sentiment"
	KindWorkflowAction       Kind = "workflow-action"
)

// Assemble renders the prompt text for a kind from its typed params.
// Unknown kinds and mismatched param types fail with a validation error.
func Assemble(kind Kind, params any) (string, error) {
	switch kind {
	case KindLeadScoring:
		if p, ok := params.(LeadScoringParams); ok {
			return BuildLeadScoringPrompt(p), nil
		}
	case KindDealPriority:
		if p, ok := params.(DealPriorityParams); ok {
			return BuildDealPriorityPrompt(p), nil
		}
	case KindRevenueForecast:
		if p, ok := params.(RevenueForecastParams); ok {
			return BuildRevenueForecastPrompt(p), nil
		}
	case KindContentGeneration:
		if p, ok := params.(ContentGenerationParams); ok {
			return BuildContentGenerationPrompt(p), nil
		}
	case KindSEOAnalysis:
		if p, ok := params.(SEOAnalysisParams); ok {
			return BuildSEOAnalysisPrompt(p), nil
		}
	case KindProposalGeneration:
		if p, ok := params.(ProposalGenerationParams); ok {
			return BuildProposalGenerationPrompt(p), nil
		}
	case KindTicketInsight:
		if p, ok := params.(TicketInsightParams); ok {
			return BuildTicketInsightPrompt(p), nil
		}
	case KindWorkflowValidation:
		if p, ok := params.(WorkflowValidationParams); ok {
			return BuildWorkflowValidationPrompt(p), nil
		}
	case KindExecutionPlan:
		if p, ok := params.(ExecutionPlanParams); ok {
			return BuildExecutionPlanPrompt(p), nil
		}
	case KindCampaignStrategy:
		if p, ok := params.(CampaignStrategyParams); ok {
			return BuildCampaignStrategyPrompt(p), nil
		}
	case KindPipelineStrategy:
		if p, ok := params.(PipelineStrategyParams); ok {
			return BuildPipelineStrategyPrompt(p), nil
		}
	case KindCampaignPerformance:
		if p, ok := params.(CampaignPerformanceParams); ok {
			return BuildCampaignPerformancePrompt(p), nil
		}
	case KindPipelinePerformance:
		if p, ok := params.(PipelinePerformanceParams); ok {
			return BuildPipelinePerformancePrompt(p), nil
		}
	case KindCustomerInsights:
		if p, ok := params.(CustomerInsightsParams); ok {
			return BuildCustomerInsightsPrompt(p), nil
		}
	case KindLeadInsights:
		if p, ok := params.(LeadInsightsParams); ok {
			return BuildLeadInsightsPrompt(p), nil
		}
	case KindCustomerValue:
		if p, ok := params.(CustomerValueParams); ok {
			return BuildCustomerValuePrompt(p), nil
		}
	case KindTaskInsights:
		if p, ok := params.(TaskInsightsParams); ok {
			return BuildTaskInsightsPrompt(p), nil
		}
	case KindWorkloadOptimization:
		if p, ok := params.(WorkloadOptimizationParams); ok {
			return BuildWorkloadOptimizationPrompt(p), nil
		}
	case KindTicketAnalytics:
		if p, ok := params.(TicketAnalyticsParams); ok {
			return BuildTicketAnalyticsPrompt(p), nil
		}
	case KindSupportScore:
		if p, ok := params.(SupportScoreParams); ok {
			return BuildSupportScorePrompt(p), nil
		}
	case KindWorkflowPerformance:
		if p, ok := params.(WorkflowPerformanceParams); ok {
			return BuildWorkflowPerformancePrompt(p), nil
		}
	case KindWorkflowOptimization:
		if p, ok := params.(WorkflowOptimizationParams); ok {
			return BuildWorkflowOptimizationPrompt(p), nil
		}
	case KindTicketSentiment:
		if p, ok := params.(TicketSentimentParams); ok {
			return BuildTicketSentimentPrompt(p), nil
		}
	case KindWorkflowAction:
		if p, ok := params.(WorkflowActionParams); ok {
			return BuildWorkflowActionPrompt(p), nil
		}
	default:
		return "", fmt.Errorf("unknown prompt kind %q: %w", kind, apperrors.ErrValidation)
	}
	return "", fmt.Errorf("wrong params type %T for prompt kind %q: %w", params, kind, apperrors.ErrValidation)
}

// SystemMessage returns the system message priming the model for a kind.
func SystemMessage(kind Kind) string {
	switch kind {
	case KindLeadScoring:
		return "You are an AI sales assistant. Analyze the lead data and provide a score and recommendations."
	case KindDealPriority:
		return "You are an AI sales assistant. Analyze the deal data and provide priority and recommendations."
	case KindRevenueForecast:
		return "You are an AI sales assistant. Analyze the sales data and provide revenue forecasts."
	case KindTicketInsight:
		return "You are a helpful customer support assistant."
	default:
		return "You are an AI business assistant. Provide a detailed and professional response."
	}
}

// asJSON embeds nested data in a prompt. Output is deterministic: map keys
// sort, struct fields keep declaration order.
func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// jsonOrEmpty embeds a raw document, defaulting absent ones to {}.
func jsonOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
