// Package llm provides the AI gateway: pluggable generation backends with
// retry, circuit breaking, and schema-validated structured output.
package llm

import "context"

// CompletionRequest is a single generation call.
type CompletionRequest struct {
	// System primes the model with its role and output discipline.
	System string

	// Prompt is the assembled prompt text.
	Prompt string

	// Temperature overrides the gateway default when non-nil.
	Temperature *float32

	// MaxTokens caps the reply length. Zero uses the backend default.
	MaxTokens int

	// JSONOnly asks the backend for native JSON output where supported.
	// The gateway sets this on structured calls; backends without a JSON
	// mode ignore it.
	JSONOnly bool
}

// Completion is a successful generation result.
type Completion struct {
	// Text is the reply. For structured calls this is the extracted,
	// validated JSON.
	Text string

	// Model that produced the reply.
	Model string

	// Provider that served the request, e.g. "openai".
	Provider string

	// Token usage as reported by the provider, zero when not reported.
	InputTokens  int
	OutputTokens int
}

// Provider is a generation backend. Implementations wrap one vendor SDK and
// normalize failures into *Error so retry decisions work uniformly.
type Provider interface {
	// Complete performs one generation call.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Name returns the backend name, e.g. "openai".
	Name() string

	// Model returns the configured model identifier.
	Model() string
}

// Completer is the surface services consume. Gateway implements it; tests
// substitute MockCompleter.
type Completer interface {
	// Complete returns free-form text.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// CompleteJSON requires a reply conforming to the given JSON Schema,
	// validates it, and unmarshals it into out when out is non-nil.
	// The returned Completion.Text holds the extracted JSON.
	CompleteJSON(ctx context.Context, req CompletionRequest, schema string, out any) (*Completion, error)
}
