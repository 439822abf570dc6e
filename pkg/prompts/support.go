package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TicketDigest summarizes one ticket for support prompts.
type TicketDigest struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TicketInsightParams is one support chat turn, optionally anchored to a
// ticket.
type TicketInsightParams struct {
	Message string          `json:"message"`
	Ticket  *TicketDigest   `json:"ticket,omitempty"`
	Context json.RawMessage `json:"context,omitempty"`
}

// BuildTicketInsightPrompt asks for a reply to a support question.
func BuildTicketInsightPrompt(p TicketInsightParams) string {
	ticketContext := "{}"
	if p.Ticket != nil {
		ticketContext = asJSON(p.Ticket)
	}

	var prompt strings.Builder

	prompt.WriteString("Respond to the following message:\n")
	prompt.WriteString(p.Message)
	prompt.WriteString("\n\n")
	prompt.WriteString(fmt.Sprintf("Context: %s\n", ticketContext))
	prompt.WriteString(fmt.Sprintf("Additional Context: %s\n\n", jsonOrEmpty(p.Context)))

	prompt.WriteString("Provide a helpful, professional response that addresses the customer's needs.\n")

	return prompt.String()
}

// TicketSentimentParams carries the text to classify.
type TicketSentimentParams struct {
	Text string `json:"text"`
}

// BuildTicketSentimentPrompt asks for a structured sentiment reading.
func BuildTicketSentimentPrompt(p TicketSentimentParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the sentiment of the following text.\n\n")
	prompt.WriteString(fmt.Sprintf("Text: %s\n\n", p.Text))

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `sentiment`: number from -1.0 (very negative) to 1.0 (very positive)\n")
	prompt.WriteString("- `label`: one of \"positive\", \"neutral\", \"negative\"\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// TicketAnalyticsParams carries the ticket corpus to analyze.
type TicketAnalyticsParams struct {
	Tickets []TicketDigest `json:"tickets"`
}

// BuildTicketAnalyticsPrompt asks for insights across all tickets.
func BuildTicketAnalyticsPrompt(p TicketAnalyticsParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following support ticket data and provide insights:\n")
	prompt.WriteString(asJSON(p.Tickets))
	prompt.WriteString("\n\nProvide:\n")
	prompt.WriteString("1. Common issues and patterns\n")
	prompt.WriteString("2. Resolution time analysis\n")
	prompt.WriteString("3. Customer satisfaction indicators\n")
	prompt.WriteString("4. Support team performance metrics\n")
	prompt.WriteString("5. Recommendations for improvement\n")

	return prompt.String()
}

// SupportScoreParams carries one customer's support history.
type SupportScoreParams struct {
	CustomerEmail string         `json:"customer_email"`
	Tickets       []TicketDigest `json:"tickets"`
}

// BuildSupportScorePrompt asks for a support experience assessment.
func BuildSupportScorePrompt(p SupportScoreParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following customer support data and provide:\n")
	prompt.WriteString("1. Overall support score (0-100)\n")
	prompt.WriteString("2. Support experience analysis\n")
	prompt.WriteString("3. Issue patterns\n")
	prompt.WriteString("4. Recommendations for improvement\n\n")

	prompt.WriteString(fmt.Sprintf("Customer: %s\n", p.CustomerEmail))
	prompt.WriteString(fmt.Sprintf("Tickets: %s\n", asJSON(p.Tickets)))

	return prompt.String()
}
