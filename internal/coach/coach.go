// Package coach produces short explanations for missed quiz questions.
// It is optional: with no provider configured every call reports
// ErrDisabled and the review screen simply omits the explanations.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/azizbek/lektor/internal/llm"
)

// ErrDisabled is returned when no language-model provider is configured.
var ErrDisabled = errors.New("coach is not configured")

// Config bounds a single explanation call.
type Config struct {
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:   384,
		Temperature: 0.3,
	}
}

// Coach wraps a provider and turns missed questions into explanations.
type Coach struct {
	provider llm.Provider
	cfg      Config
}

// New creates a coach. A nil provider is allowed and produces a
// disabled coach.
func New(provider llm.Provider, cfg Config) *Coach {
	return &Coach{provider: provider, cfg: cfg}
}

// Enabled reports whether a provider is configured.
func (c *Coach) Enabled() bool {
	return c != nil && c.provider != nil
}

// Request describes one missed question.
type Request struct {
	QuestionText  string
	Options       []string
	CorrectIndex  int
	SelectedIndex int
}

// Explanation is the coach's answer.
type Explanation struct {
	Summary  string `json:"summary"`
	WhyWrong string `json:"why_wrong"`
	Tip      string `json:"tip"`
}

// Explain asks the model why the selected option is wrong and the
// correct one is right.
func (c *Coach) Explain(ctx context.Context, req Request) (*Explanation, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) {
		return nil, fmt.Errorf("correct index %d out of range", req.CorrectIndex)
	}

	userMsg, err := buildExplainMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build explain prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      explanationSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("explanation failed: %w", err)
	}

	var out Explanation
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation: %w", err)
	}
	return &out, nil
}

const explainSystemPrompt = `You are a patient tutor reviewing a student's quiz attempt. The student picked a wrong answer on a multiple-choice question.

Instructions:
- Explain the correct answer in plain language a student can follow.
- Address the specific wrong option the student chose, not wrong answers in general.
- Keep each field to at most two sentences.
- Never mention that you are a language model.`

var explainUserTemplate = template.Must(template.New("explain").Parse(`Question: {{.QuestionText}}

Options:
{{range $i, $opt := .Options}}{{$i}}. {{$opt}}
{{end}}
Correct option: {{.CorrectIndex}}
Student chose: {{.SelectedIndex}}`))

func buildExplainMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := explainUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var explanationSchema = &llm.Schema{
	Name:        "quiz-explanation",
	Description: "Explanation of a missed multiple-choice question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Why the correct option is right",
			},
			"why_wrong": map[string]any{
				"type":        "string",
				"description": "Why the student's chosen option is wrong",
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "One short tip to avoid this mistake next time",
			},
		},
		"required":             []any{"summary", "why_wrong", "tip"},
		"additionalProperties": false,
	},
}
