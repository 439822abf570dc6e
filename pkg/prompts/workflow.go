package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WorkflowValidationParams describes a workflow configuration to review.
type WorkflowValidationParams struct {
	Name          string            `json:"name"`
	TriggerType   string            `json:"trigger_type"`
	TriggerConfig json.RawMessage   `json:"trigger_config"`
	Actions       []json.RawMessage `json:"actions"`
}

// BuildWorkflowValidationPrompt asks for a structured configuration review.
func BuildWorkflowValidationPrompt(p WorkflowValidationParams) string {
	var prompt strings.Builder

	prompt.WriteString("Validate the following workflow configuration:\n")
	prompt.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Trigger Type: %s\n", p.TriggerType))
	prompt.WriteString(fmt.Sprintf("Trigger Config: %s\n", jsonOrEmpty(p.TriggerConfig)))
	prompt.WriteString(fmt.Sprintf("Actions: %s\n\n", asJSON(p.Actions)))

	prompt.WriteString("Consider:\n")
	prompt.WriteString("1. Configuration validation\n")
	prompt.WriteString("2. Potential issues\n")
	prompt.WriteString("3. Optimization suggestions\n\n")

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `valid`: whether the configuration is sound\n")
	prompt.WriteString("- `issues`: array of problems found (may be empty)\n")
	prompt.WriteString("- `suggestions`: array of improvements (may be empty)\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// ExecutionPlanParams describes a workflow run about to start.
type ExecutionPlanParams struct {
	WorkflowName string            `json:"workflow"`
	TriggerType  string            `json:"trigger_type"`
	InputData    json.RawMessage   `json:"input_data"`
	Actions      []json.RawMessage `json:"actions"`
}

// BuildExecutionPlanPrompt asks for a structured plan before execution.
func BuildExecutionPlanPrompt(p ExecutionPlanParams) string {
	var prompt strings.Builder

	prompt.WriteString("Create an execution plan for the following workflow:\n")
	prompt.WriteString(fmt.Sprintf("Workflow: %s\n", p.WorkflowName))
	prompt.WriteString(fmt.Sprintf("Trigger Type: %s\n", p.TriggerType))
	prompt.WriteString(fmt.Sprintf("Input Data: %s\n", jsonOrEmpty(p.InputData)))
	prompt.WriteString(fmt.Sprintf("Actions: %s\n\n", asJSON(p.Actions)))

	prompt.WriteString("Consider:\n")
	prompt.WriteString("1. Execution steps\n")
	prompt.WriteString("2. Resource requirements\n")
	prompt.WriteString("3. Potential bottlenecks\n")
	prompt.WriteString("4. Error handling strategies\n\n")

	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `steps`: ordered array of execution steps\n")
	prompt.WriteString("- `resources`: array of required resources\n")
	prompt.WriteString("- `bottlenecks`: array of potential bottlenecks\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// WorkflowActionParams is one action of a running workflow.
type WorkflowActionParams struct {
	Action    json.RawMessage `json:"action"`
	InputData json.RawMessage `json:"input_data"`
}

// BuildWorkflowActionPrompt asks for the output of one workflow action.
func BuildWorkflowActionPrompt(p WorkflowActionParams) string {
	var prompt strings.Builder

	prompt.WriteString("Execute the following workflow action:\n")
	prompt.WriteString(fmt.Sprintf("Action: %s\n", jsonOrEmpty(p.Action)))
	prompt.WriteString(fmt.Sprintf("Input Data: %s\n\n", jsonOrEmpty(p.InputData)))

	prompt.WriteString("Provide the action output as a JSON object.\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// ExecutionDigest summarizes one past run for performance prompts.
type ExecutionDigest struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WorkflowPerformanceParams carries a workflow's execution history.
type WorkflowPerformanceParams struct {
	WorkflowName string            `json:"workflow"`
	TriggerType  string            `json:"trigger_type"`
	Executions   []ExecutionDigest `json:"executions"`
}

// BuildWorkflowPerformancePrompt asks for insights over past runs.
func BuildWorkflowPerformancePrompt(p WorkflowPerformanceParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following workflow performance data and provide insights:\n")
	prompt.WriteString(fmt.Sprintf("Workflow: %s\n", p.WorkflowName))
	prompt.WriteString(fmt.Sprintf("Trigger Type: %s\n", p.TriggerType))
	prompt.WriteString(fmt.Sprintf("Executions: %s\n\n", asJSON(p.Executions)))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Success rate analysis\n")
	prompt.WriteString("2. Execution time patterns\n")
	prompt.WriteString("3. Error patterns\n")
	prompt.WriteString("4. Optimization opportunities\n")
	prompt.WriteString("5. Recommendations for improvement\n")

	return prompt.String()
}

// WorkflowOptimizationParams carries a workflow's full configuration.
type WorkflowOptimizationParams struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	TriggerType   string            `json:"trigger_type"`
	TriggerConfig json.RawMessage   `json:"trigger_config"`
	Actions       []json.RawMessage `json:"actions"`
}

// BuildWorkflowOptimizationPrompt asks for optimization suggestions.
func BuildWorkflowOptimizationPrompt(p WorkflowOptimizationParams) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the following workflow configuration and provide optimization suggestions:\n")
	prompt.WriteString(fmt.Sprintf("Workflow: %s\n", p.Name))
	prompt.WriteString(fmt.Sprintf("Description: %s\n", p.Description))
	prompt.WriteString(fmt.Sprintf("Trigger Type: %s\n", p.TriggerType))
	prompt.WriteString(fmt.Sprintf("Trigger Config: %s\n", jsonOrEmpty(p.TriggerConfig)))
	prompt.WriteString(fmt.Sprintf("Actions: %s\n\n", asJSON(p.Actions)))

	prompt.WriteString("Provide:\n")
	prompt.WriteString("1. Performance optimization suggestions\n")
	prompt.WriteString("2. Resource utilization improvements\n")
	prompt.WriteString("3. Error handling enhancements\n")
	prompt.WriteString("4. Scalability recommendations\n")
	prompt.WriteString("5. Cost optimization strategies\n")

	return prompt.String()
}
