package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results. Actionable
// errors return as successful tool results so the calling agent sees the
// details instead of an opaque protocol failure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the agent can fix and retry (invalid
// parameters, record not found). System failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context
// the agent can use to correct the call.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// HandleServiceError converts a service fault into a tool result when the
// fault is actionable by the caller, or into a protocol error when it is
// not. Provider faults satisfy errors.Is against the upstream sentinels
// through their own Is method, so a throttled model reads as rate_limited
// here too.
func HandleServiceError(err error, fallbackCode string) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrValidation):
		return NewErrorResult("validation_error", err.Error()), nil
	case errors.Is(err, apperrors.ErrForbidden):
		return NewErrorResult("forbidden", err.Error()), nil
	case errors.Is(err, apperrors.ErrInsufficientData):
		return NewErrorResult("insufficient_data", err.Error()), nil
	case errors.Is(err, apperrors.ErrRateLimited):
		return NewErrorResult("rate_limited", err.Error()), nil
	default:
		return nil, fmt.Errorf("%s: %w", fallbackCode, err)
	}
}
