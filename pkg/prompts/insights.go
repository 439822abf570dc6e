package prompts

import (
	"fmt"
	"strings"
)

// LeadDigest summarizes one lead for the insight prompts.
type LeadDigest struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Status    string `json:"status"`
	Score     *int   `json:"score"`
	CreatedAt string `json:"created_at"`
}

// CustomerDigest summarizes one customer for the insight prompts.
type CustomerDigest struct {
	ID           string  `json:"id"`
	Company      string  `json:"company"`
	TotalRevenue float64 `json:"total_revenue"`
	CreatedAt    string  `json:"created_at"`
}

// TaskDigest summarizes one task for the insight prompts.
type TaskDigest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LeadInsightsParams carries the lead corpus to analyze.
type LeadInsightsParams struct {
	Leads []LeadDigest `json:"leads"`
}

// BuildLeadInsightsPrompt asks for conversion insights across all leads.
func BuildLeadInsightsPrompt(p LeadInsightsParams) string {
	return buildRecordAnalysisPrompt(asJSON(p.Leads))
}

// CustomerValueParams carries the customer corpus to analyze.
type CustomerValueParams struct {
	Customers []CustomerDigest `json:"customers"`
}

// BuildCustomerValuePrompt asks for value and retention insights.
func BuildCustomerValuePrompt(p CustomerValueParams) string {
	return buildRecordAnalysisPrompt(asJSON(p.Customers))
}

// TaskInsightsParams carries the task corpus to analyze.
type TaskInsightsParams struct {
	Tasks []TaskDigest `json:"tasks"`
}

// BuildTaskInsightsPrompt asks for productivity insights across tasks.
func BuildTaskInsightsPrompt(p TaskInsightsParams) string {
	return buildRecordAnalysisPrompt(asJSON(p.Tasks))
}

// buildRecordAnalysisPrompt is the shared body of the corpus-analysis
// prompts: the same four-part review over whichever records are supplied.
func buildRecordAnalysisPrompt(recordsJSON string) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following records and provide:\n")
	prompt.WriteString("1. Key themes and patterns\n")
	prompt.WriteString("2. Sentiment analysis\n")
	prompt.WriteString("3. Action items\n")
	prompt.WriteString("4. Improvement opportunities\n\n")
	prompt.WriteString(fmt.Sprintf("Data: %s\n", recordsJSON))

	return prompt.String()
}

// WorkloadOptimizationParams describes one user's open workload.
type WorkloadOptimizationParams struct {
	UserID          string         `json:"user_id"`
	TotalTasks      int            `json:"total_tasks"`
	TasksByPriority map[string]int `json:"tasks_by_priority"`
	TasksByStatus   map[string]int `json:"tasks_by_status"`
}

// BuildWorkloadOptimizationPrompt asks for workload balancing advice.
func BuildWorkloadOptimizationPrompt(p WorkloadOptimizationParams) string {
	var prompt strings.Builder

	prompt.WriteString("Based on the following workload data, suggest appropriate actions:\n")
	prompt.WriteString("- Email communications\n")
	prompt.WriteString("- Task assignments\n")
	prompt.WriteString("- Follow-up reminders\n")
	prompt.WriteString("- Data updates\n\n")
	prompt.WriteString(fmt.Sprintf("Workload Data: %s\n", asJSON(p)))

	return prompt.String()
}
