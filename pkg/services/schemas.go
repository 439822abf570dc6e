package services

// JSON Schemas for structured generation. Every AI call that feeds a value
// back into a record or a typed response goes through CompleteJSON with one
// of these; free-text replies are only used where the text itself is the
// product (content, insights, chat).

const leadScoringSchema = `{
	"type": "object",
	"required": ["score", "segment", "next_action", "confidence"],
	"properties": {
		"score": {"type": "integer", "minimum": 0, "maximum": 100},
		"segment": {"type": "string", "enum": ["hot", "warm", "cold"]},
		"next_action": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

const dealPrioritySchema = `{
	"type": "object",
	"required": ["priority", "next_action", "staleness_score", "confidence"],
	"properties": {
		"priority": {"type": "string", "enum": ["high", "medium", "low"]},
		"next_action": {"type": "string"},
		"staleness_score": {"type": "number", "minimum": 0, "maximum": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

const revenueOutlookSchema = `{
	"type": "object",
	"required": ["predicted_revenue", "confidence", "factors"],
	"properties": {
		"predicted_revenue": {"type": "number"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"factors": {"type": "array", "items": {"type": "string"}}
	}
}`

const seoAnalysisSchema = `{
	"type": "object",
	"required": ["score", "keywords", "suggestions"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"keywords": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}}
	}
}`

const sentimentSchema = `{
	"type": "object",
	"required": ["sentiment", "label"],
	"properties": {
		"sentiment": {"type": "number", "minimum": -1, "maximum": 1},
		"label": {"type": "string", "enum": ["positive", "neutral", "negative"]}
	}
}`

const workflowValidationSchema = `{
	"type": "object",
	"required": ["valid", "issues", "suggestions"],
	"properties": {
		"valid": {"type": "boolean"},
		"issues": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}}
	}
}`

const executionPlanSchema = `{
	"type": "object",
	"required": ["steps", "resources", "bottlenecks"],
	"properties": {
		"steps": {"type": "array", "items": {"type": "string"}},
		"resources": {"type": "array", "items": {"type": "string"}},
		"bottlenecks": {"type": "array", "items": {"type": "string"}}
	}
}`

// actionOutputSchema accepts any JSON object. Workflow actions are opaque;
// the only contract is that an action produces an object.
const actionOutputSchema = `{"type": "object"}`
