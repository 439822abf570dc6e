package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LeadScoringParams describes one lead for scoring.
type LeadScoringParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
	Source   string `json:"source"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`
}

// BuildLeadScoringPrompt asks for a structured score of one lead.
func BuildLeadScoringPrompt(p LeadScoringParams) string {
	var prompt strings.Builder

	prompt.WriteString("Based on the following lead data, calculate a lead score from 0 to 100.\n")
	prompt.WriteString("Consider factors like:\n")
	prompt.WriteString("- Company size\n")
	prompt.WriteString("- Industry\n")
	prompt.WriteString("- Engagement level\n")
	prompt.WriteString("- Budget indicators\n\n")
	prompt.WriteString(fmt.Sprintf("Lead Data: %s\n\n", asJSON(p)))

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `score`: integer from 0 to 100\n")
	prompt.WriteString("- `segment`: one of \"hot\", \"warm\", \"cold\"\n")
	prompt.WriteString("- `next_action`: recommended next step for this lead\n")
	prompt.WriteString("- `confidence`: 0.0-1.0 (how confident you are in this assessment)\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// DealPriorityParams describes one deal for prioritization.
type DealPriorityParams struct {
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"`
	Stage           string  `json:"stage"`
	CloseDate       string  `json:"close_date"`
	DaysSinceActive int     `json:"days_since_active"`
	LeadCompany     string  `json:"lead_company"`
	LeadIndustry    string  `json:"lead_industry"`
	LeadScore       *int    `json:"lead_score"`
}

// BuildDealPriorityPrompt asks for a structured priority of one deal.
func BuildDealPriorityPrompt(p DealPriorityParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following deal and assess its priority.\n\n")
	prompt.WriteString(fmt.Sprintf("Deal Data: %s\n\n", asJSON(p)))

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `priority`: one of \"high\", \"medium\", \"low\"\n")
	prompt.WriteString("- `next_action`: recommended next step for this deal\n")
	prompt.WriteString("- `staleness_score`: 0.0-1.0, how stale the deal is given days since last activity\n")
	prompt.WriteString("- `confidence`: 0.0-1.0 (how confident you are in this assessment)\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// DealDigest summarizes one deal for forecast prompts.
type DealDigest struct {
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Stage     string  `json:"stage"`
	Priority  *string `json:"priority,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// RevenueForecastParams carries closed history and the open pipeline.
type RevenueForecastParams struct {
	Period          string       `json:"period"`
	HistoricalDeals []DealDigest `json:"historical_deals"`
	CurrentPipeline []DealDigest `json:"current_pipeline"`
}

// BuildRevenueForecastPrompt asks for a structured revenue outlook.
func BuildRevenueForecastPrompt(p RevenueForecastParams) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Analyze the following sales data and forecast revenue for the %q period.\n\n", p.Period))
	prompt.WriteString(fmt.Sprintf("Sales Data: %s\n\n", asJSON(p)))

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `predicted_revenue`: expected revenue for the period\n")
	prompt.WriteString("- `confidence`: 0.0-1.0 (how confident you are in the prediction)\n")
	prompt.WriteString("- `factors`: array of factors affecting the prediction\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// ProposalGenerationParams drives sales proposal drafting.
type ProposalGenerationParams struct {
	CustomerCompany string          `json:"customer_company"`
	CustomerEmail   string          `json:"customer_email"`
	TotalRevenue    float64         `json:"total_revenue"`
	ProductData     json.RawMessage `json:"product_data"`
	PricingData     json.RawMessage `json:"pricing_data"`
	Requirements    []string        `json:"custom_requirements,omitempty"`
}

// BuildProposalGenerationPrompt asks for a full proposal document.
func BuildProposalGenerationPrompt(p ProposalGenerationParams) string {
	customer := struct {
		Company      string  `json:"company"`
		Email        string  `json:"email"`
		TotalRevenue float64 `json:"total_revenue"`
	}{p.CustomerCompany, p.CustomerEmail, p.TotalRevenue}

	var prompt strings.Builder

	prompt.WriteString("Generate a professional sales proposal based on:\n\n")
	prompt.WriteString(fmt.Sprintf("Customer Data: %s\n", asJSON(customer)))
	prompt.WriteString(fmt.Sprintf("Product Data: %s\n", jsonOrEmpty(p.ProductData)))
	prompt.WriteString(fmt.Sprintf("Pricing Data: %s\n", jsonOrEmpty(p.PricingData)))
	if len(p.Requirements) > 0 {
		prompt.WriteString(fmt.Sprintf("Custom Requirements: %s\n", strings.Join(p.Requirements, ", ")))
	}

	prompt.WriteString("\nInclude:\n")
	prompt.WriteString("- Executive summary\n")
	prompt.WriteString("- Problem statement\n")
	prompt.WriteString("- Solution overview\n")
	prompt.WriteString("- Pricing details\n")
	prompt.WriteString("- Implementation timeline\n")
	prompt.WriteString("- Terms and conditions\n")

	return prompt.String()
}

// PipelineStrategyParams describes a new sales pipeline.
type PipelineStrategyParams struct {
	Name             string   `json:"name"`
	Stages           []string `json:"stages"`
	TargetRevenue    float64  `json:"target_revenue"`
	ExpectedDuration int      `json:"expected_duration_days"`
}

// BuildPipelineStrategyPrompt asks for a strategy for a new pipeline.
func BuildPipelineStrategyPrompt(p PipelineStrategyParams) string {
	var prompt strings.Builder

	prompt.WriteString("Create a sales pipeline strategy for:\n")
	prompt.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Stages: %s\n", strings.Join(p.Stages, ", ")))
	prompt.WriteString(fmt.Sprintf("Target Revenue: $%.2f\n", p.TargetRevenue))
	prompt.WriteString(fmt.Sprintf("Expected Duration: %d days\n\n", p.ExpectedDuration))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Stage-specific tactics\n")
	prompt.WriteString("2. Revenue projections\n")
	prompt.WriteString("3. Resource allocation\n")
	prompt.WriteString("4. Risk mitigation strategies\n")

	return prompt.String()
}

// PipelinePerformanceParams describes a pipeline's progress.
type PipelinePerformanceParams struct {
	Name           string   `json:"name"`
	CurrentRevenue float64  `json:"current_revenue"`
	TargetRevenue  float64  `json:"target_revenue"`
	Stages         []string `json:"stages"`
}

// BuildPipelinePerformancePrompt asks for pipeline performance insights.
func BuildPipelinePerformancePrompt(p PipelinePerformanceParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following sales pipeline performance data and provide insights:\n")
	prompt.WriteString(fmt.Sprintf("Pipeline: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Current Revenue: $%.2f\n", p.CurrentRevenue))
	prompt.WriteString(fmt.Sprintf("Target Revenue: $%.2f\n", p.TargetRevenue))
	prompt.WriteString(fmt.Sprintf("Stages: %s\n\n", strings.Join(p.Stages, ", ")))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Revenue analysis\n")
	prompt.WriteString("2. Stage conversion rates\n")
	prompt.WriteString("3. Bottleneck identification\n")
	prompt.WriteString("4. Recommendations for improvement\n")

	return prompt.String()
}

// ProposalDigest summarizes one proposal for customer insight prompts.
type ProposalDigest struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// CustomerInsightsParams describes one customer and their proposals.
type CustomerInsightsParams struct {
	Company       string           `json:"company"`
	TotalRevenue  float64          `json:"total_revenue"`
	CustomerSince string           `json:"customer_since"`
	Proposals     []ProposalDigest `json:"proposals"`
}

// BuildCustomerInsightsPrompt asks for behavior and potential insights.
func BuildCustomerInsightsPrompt(p CustomerInsightsParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following customer data and provide insights:\n")
	prompt.WriteString(fmt.Sprintf("Customer: %s\n", p.Company))
	prompt.WriteString(fmt.Sprintf("Annual Revenue: $%.2f\n", p.TotalRevenue))
	prompt.WriteString(fmt.Sprintf("Customer Since: %s\n", p.CustomerSince))
	prompt.WriteString(fmt.Sprintf("Proposals: %s\n\n", asJSON(p.Proposals)))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Customer value analysis\n")
	prompt.WriteString("2. Purchase behavior patterns\n")
	prompt.WriteString("3. Upsell opportunities\n")
	prompt.WriteString("4. Risk assessment\n")

	return prompt.String()
}
