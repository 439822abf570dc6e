package prompts

import (
	"fmt"
	"strings"
)

// ContentGenerationParams specifies a piece of marketing content.
type ContentGenerationParams struct {
	Topic          string   `json:"topic"`
	ContentType    string   `json:"content_type"`
	TargetAudience string   `json:"target_audience"`
	Tone           string   `json:"tone"`
	Keywords       []string `json:"keywords"`
	Length         string   `json:"length"`
}

// BuildContentGenerationPrompt asks for finished marketing copy.
func BuildContentGenerationPrompt(p ContentGenerationParams) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Generate %s content with the following requirements:\n", p.ContentType))
	prompt.WriteString(fmt.Sprintf("Topic: %s\n", p.Topic))
	prompt.WriteString(fmt.Sprintf("Target Audience: %s\n", p.TargetAudience))
	prompt.WriteString(fmt.Sprintf("Tone: %s\n", p.Tone))
	prompt.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(p.Keywords, ", ")))
	prompt.WriteString(fmt.Sprintf("Length: %s\n\n", p.Length))

	prompt.WriteString("Please ensure the content is engaging, informative, and optimized for the target audience.\n")

	return prompt.String()
}

// SEOAnalysisParams carries the content under review.
type SEOAnalysisParams struct {
	Content string `json:"content"`
}

// BuildSEOAnalysisPrompt asks for a structured SEO review.
func BuildSEOAnalysisPrompt(p SEOAnalysisParams) string {
	var prompt strings.Builder

	prompt.WriteString("Perform a comprehensive SEO analysis of the following content:\n\n")
	prompt.WriteString(p.Content)
	prompt.WriteString("\n\nConsider:\n")
	prompt.WriteString("1. Keyword density analysis\n")
	prompt.WriteString("2. Content structure assessment\n")
	prompt.WriteString("3. Meta description suggestions\n")
	prompt.WriteString("4. Title tag optimization\n")
	prompt.WriteString("5. Internal linking opportunities\n")
	prompt.WriteString("6. Mobile optimization recommendations\n\n")

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `score`: SEO score from 0 to 100\n")
	prompt.WriteString("- `keywords`: array of key terms found in the content\n")
	prompt.WriteString("- `suggestions`: array of improvement suggestions\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// CampaignStrategyParams describes a new marketing campaign.
type CampaignStrategyParams struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	Channels       []string `json:"channels"`
	Goals          []string `json:"goals"`
}

// BuildCampaignStrategyPrompt asks for a strategy for a new campaign.
func BuildCampaignStrategyPrompt(p CampaignStrategyParams) string {
	var prompt strings.Builder

	prompt.WriteString("Create a marketing campaign strategy for:\n")
	prompt.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Description: %s\n", p.Description))
	prompt.WriteString(fmt.Sprintf("Target Audience: %s\n", p.TargetAudience))
	prompt.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(p.Channels, ", ")))
	prompt.WriteString(fmt.Sprintf("Goals: %s\n\n", strings.Join(p.Goals, ", ")))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Channel-specific tactics\n")
	prompt.WriteString("2. Content recommendations\n")
	prompt.WriteString("3. Timeline suggestions\n")
	prompt.WriteString("4. Budget allocation\n")

	return prompt.String()
}

// CampaignMetrics are the tracked performance counters of a campaign.
type CampaignMetrics struct {
	Reach       int     `json:"reach"`
	Engagement  float64 `json:"engagement"`
	Conversions int     `json:"conversions"`
	ROI         float64 `json:"roi"`
}

// CampaignPerformanceParams describes a campaign's tracked results.
type CampaignPerformanceParams struct {
	Name    string          `json:"name"`
	Metrics CampaignMetrics `json:"performance_metrics"`
	Goals   []string        `json:"goals"`
}

// BuildCampaignPerformancePrompt asks for campaign performance insights.
func BuildCampaignPerformancePrompt(p CampaignPerformanceParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following campaign performance data and provide insights:\n")
	prompt.WriteString(fmt.Sprintf("Campaign: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Performance Metrics: %s\n", asJSON(p.Metrics)))
	prompt.WriteString(fmt.Sprintf("Goals: %s\n\n", strings.Join(p.Goals, ", ")))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Performance analysis\n")
	prompt.WriteString("2. Goal achievement assessment\n")
	prompt.WriteString("3. ROI calculation\n")
	prompt.WriteString("4. Recommendations for improvement\n")

	return prompt.String()
}
