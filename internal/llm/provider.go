// Package llm abstracts the optional language-model backends behind a
// single Provider interface. The coach is the only consumer; the client
// is fully functional with no provider configured.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured JSON answers.
type Provider interface {
	// Generate sends the request and returns the model's output. When
	// the request carries a Schema, the returned Content is JSON that
	// validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the configured model.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation, usually one user message.
	Messages []Message

	// Schema, when set, selects the provider's structured-output path
	// and the response is validated against it.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature in [0, 1]; zero means deterministic.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and defines the JSON shape a response must take.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model's output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end", "max_tokens", "error"
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
