package practice

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://practice-set.json"

// payloadSchema describes the single-question payload requested from the model.
var payloadSchema = map[string]any{
	"type":     "object",
	"required": []any{"test"},
	"properties": map[string]any{
		"test": map[string]any{
			"type":     "object",
			"required": []any{"question"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "string"},
				"title": map[string]any{"type": "string"},
				"question": map[string]any{
					"type":     "object",
					"required": []any{"questionType", "questionText", "correctAnswer"},
					"properties": map[string]any{
						"id": map[string]any{"type": "string"},
						"questionType": map[string]any{
							"enum": []any{string(TypeMultipleChoice), string(TypeTrueFalse), string(TypeShortAnswer)},
						},
						"questionText":  map[string]any{"type": "string", "minLength": 1},
						"choices":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctAnswer": map[string]any{"type": "string"},
						"explanation":   map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, payloadSchema); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a freshly generated payload against the single-question
// shape. It is advisory: callers store the payload whatever the result, since
// Normalize tolerates older and partial shapes.
func Validate(raw string) error {
	payload := stripCodeFence(raw)
	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	pkg := Normalize(payload)
	if pkg == nil || pkg.Question == nil {
		return nil
	}
	q := pkg.Question
	if !strings.EqualFold(string(q.Type), string(TypeMultipleChoice)) && !strings.EqualFold(string(q.Type), string(TypeTrueFalse)) {
		return nil
	}
	for _, c := range q.Choices {
		if strings.EqualFold(c, q.CorrectAnswer) {
			return nil
		}
	}
	return fmt.Errorf("correct answer %q is not one of the choices", q.CorrectAnswer)
}
