package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockProvider is a configurable backend for testing the gateway.
// Set CompleteFunc to control behavior; the zero value returns empty replies.
type MockProvider struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns an empty completion and nil error.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)

	// NameValue and ModelValue are returned by Name and Model.
	NameValue  string
	ModelValue string

	// Call tracking for verification
	CompleteCalls int
	LastRequest   CompletionRequest
}

// NewMockProvider creates a new mock with sensible defaults.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		NameValue:  "mock",
		ModelValue: "mock-model",
	}
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	m.CompleteCalls++
	m.LastRequest = req
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Completion{Model: m.Model(), Provider: m.Name()}, nil
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Model implements Provider.
func (m *MockProvider) Model() string {
	if m.ModelValue == "" {
		return "mock-model"
	}
	return m.ModelValue
}

// Reset clears call tracking.
func (m *MockProvider) Reset() {
	m.CompleteCalls = 0
	m.LastRequest = CompletionRequest{}
}

var _ Provider = (*MockProvider)(nil)

// MockCompleter is a configurable Completer for service tests.
// Set the function fields to control behavior. Call tracking is guarded by
// a mutex; bulk operations invoke the mock from several goroutines.
type MockCompleter struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns an empty completion and nil error.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)

	// CompleteJSONFunc is called when CompleteJSON is invoked.
	// If nil, JSONText is unmarshaled into out instead.
	CompleteJSONFunc func(ctx context.Context, req CompletionRequest, schema string, out any) (*Completion, error)

	// JSONText is the canned structured reply used when CompleteJSONFunc
	// is nil. Defaults to "{}".
	JSONText string

	mu sync.Mutex

	// Call tracking for verification
	CompleteCalls     int
	CompleteJSONCalls int
	LastPrompt        string
	LastSchema        string
}

// NewMockCompleter creates a new mock with sensible defaults.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{JSONText: "{}"}
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.LastPrompt = req.Prompt
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &Completion{Model: "mock-model", Provider: "mock"}, nil
}

// CompleteJSON implements Completer.
func (m *MockCompleter) CompleteJSON(ctx context.Context, req CompletionRequest, schema string, out any) (*Completion, error) {
	m.mu.Lock()
	m.CompleteJSONCalls++
	m.LastPrompt = req.Prompt
	m.LastSchema = schema
	fn := m.CompleteJSONFunc
	text := m.JSONText
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req, schema, out)
	}

	if text == "" {
		text = "{}"
	}
	if out != nil {
		if err := json.Unmarshal([]byte(text), out); err != nil {
			return nil, NewError(ErrorTypeParse, "failed to decode canned reply", false, err)
		}
	}
	return &Completion{Text: text, Model: "mock-model", Provider: "mock"}, nil
}

// Reset clears call tracking.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = 0
	m.CompleteJSONCalls = 0
	m.LastPrompt = ""
	m.LastSchema = ""
}

var _ Completer = (*MockCompleter)(nil)
