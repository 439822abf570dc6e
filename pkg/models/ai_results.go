package models

// Structured shapes returned by the generation gateway. Every AI consumer
// that needs a value requests one of these shapes; free-text scraping is
// not allowed anywhere in the engine.

// SEOAnalysis is the structured result of an SEO review of content.
type SEOAnalysis struct {
	Score       float64  `json:"score"`
	Keywords    []string `json:"keywords"`
	Suggestions []string `json:"suggestions"`
}

// SentimentResult is the structured result of ticket sentiment analysis.
// Sentiment is in [-1, 1], negative meaning dissatisfied.
type SentimentResult struct {
	Sentiment float64 `json:"sentiment"`
	Label     string  `json:"label"`
}

// RevenueOutlook is the structured provider-generated forecast over open
// deals, distinct from the deterministic transaction forecast.
type RevenueOutlook struct {
	PredictedRevenue float64  `json:"predicted_revenue"`
	Confidence       float64  `json:"confidence"`
	Factors          []string `json:"factors"`
}

// WorkflowValidation is the structured review of a workflow configuration.
type WorkflowValidation struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// ExecutionPlan is the structured plan generated before running a workflow.
type ExecutionPlan struct {
	Steps       []string `json:"steps"`
	Resources   []string `json:"resources"`
	Bottlenecks []string `json:"bottlenecks"`
}
