package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// quizPoolSchema is the contract the MCQ payload must satisfy before the
// client tries to normalize it. It admits both key spellings but insists
// on the parts the assessment cannot run without.
const quizPoolSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"properties": {
			"question": {"type": "string"},
			"text": {"type": "string"},
			"options": {"type": "array", "items": {"type": "string"}, "minItems": 2},
			"answers": {"type": "array", "items": {"type": "string"}, "minItems": 2}
		},
		"anyOf": [
			{"required": ["question", "options"]},
			{"required": ["question", "answers"]},
			{"required": ["text", "options"]},
			{"required": ["text", "answers"]}
		]
	}
}`

var (
	quizSchemaOnce sync.Once
	quizSchema     *jsonschema.Schema
	quizSchemaErr  error
)

// validateQuizPool checks the raw MCQ payload against the schema.
func validateQuizPool(raw json.RawMessage) error {
	quizSchemaOnce.Do(compileQuizSchema)
	if quizSchemaErr != nil {
		return quizSchemaErr
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("quiz payload is not valid JSON: %w", err)
	}
	if err := quizSchema.Validate(parsed); err != nil {
		return fmt.Errorf("quiz payload rejected: %w", err)
	}
	return nil
}

func compileQuizSchema() {
	var def any
	if err := json.Unmarshal([]byte(quizPoolSchema), &def); err != nil {
		quizSchemaErr = fmt.Errorf("parse quiz schema: %w", err)
		return
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema://quiz-pool.json", def); err != nil {
		quizSchemaErr = fmt.Errorf("add quiz schema resource: %w", err)
		return
	}
	quizSchema, quizSchemaErr = c.Compile("schema://quiz-pool.json")
}
