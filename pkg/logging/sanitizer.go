// Package logging provides log-output sanitizers. Anything that can carry
// credentials (DSNs, provider errors, bearer headers) passes through here
// before reaching a log line.
package logging

import "regexp"

// RedactedText replaces sensitive values in sanitized output.
const RedactedText = "[REDACTED]"

var (
	// password=..., pwd=..., pass=... in key=value DSNs.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens echoed into error text from request headers.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// api_key=... style credentials, as provider SDKs embed in request URLs.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:password@host credentials in URL-form connection strings.
	urlCredsPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeConnectionString redacts credentials from a DSN in either
// key=value or URL form.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	s := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return urlCredsPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError renders an error for logging with credential-shaped content
// redacted. Store and AI-provider errors can echo DSNs, bearer headers, or
// keyed request URLs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return urlCredsPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// TruncateString caps s at maxLen bytes plus an ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
