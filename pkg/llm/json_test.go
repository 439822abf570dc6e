package llm

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"score": 82, "segment": "warm"}`, `{"score": 82, "segment": "warm"}`},
		{"plain array", `[{"month": "2026-07"}, {"month": "2026-08"}]`, `[{"month": "2026-07"}, {"month": "2026-08"}]`},
		{"nested structures", `{"forecast": [{"series": {"points": [1, 2, 3]}}]}`, `{"forecast": [{"series": {"points": [1, 2, 3]}}]}`},
		{"json code fence", "```json\n{\"score\": 82}\n```", `{"score": 82}`},
		{"bare code fence", "```\n{\"result\": \"ok\"}\n```", `{"result": "ok"}`},
		{"prose before", "Here is the breakdown:\n{\"segment\": \"hot\"}", `{"segment": "hot"}`},
		{"prose after", "{\"segment\": \"hot\"}\nLet me know if you need more.", `{"segment": "hot"}`},
		{"braces inside strings", `{"next_action": "use {company} in the subject line"}`, `{"next_action": "use {company} in the subject line"}`},
		{"escaped quotes inside strings", `{"quote": "she said \"hello\" twice"}`, `{"quote": "she said \"hello\" twice"}`},
		{"object before array", `{"first": true} and then [1, 2, 3]`, `{"first": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no json at all", "I could not produce the requested output."},
		{"unbalanced object", `{"open": {"never": "closed"`},
		{"empty reply", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractJSON(tt.input); err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type scorePayload struct {
		Score   int    `json:"score"`
		Segment string `json:"segment"`
	}

	input := "Sure, here you go:\n```json\n{\"score\": 74, \"segment\": \"hot\"}\n```"
	result, err := ParseJSONResponse[scorePayload](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 74 {
		t.Errorf("expected score 74, got %d", result.Score)
	}
	if result.Segment != "hot" {
		t.Errorf("expected segment %q, got %q", "hot", result.Segment)
	}
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type payload struct {
		Count int `json:"count"`
	}

	_, err := ParseJSONResponse[payload](`{"count": "not a number"}`)
	if err == nil {
		t.Fatal("expected unmarshal error for type mismatch")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.expected {
				t.Errorf("stripCodeFence(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
