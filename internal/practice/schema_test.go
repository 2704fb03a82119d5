package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"canonical", canonicalPayload, false},
		{"fenced", "```json\n" + canonicalPayload + "\n```", false},
		{"short answer without choices", `{"test":{"question":{"questionType":"shortAnswer","questionText":"2+2?","correctAnswer":"4"}}}`, false},
		{"null question", EmptyQuestionsJSON, true},
		{"legacy shape", `{"test":{"questions":[]}}`, true},
		{"unknown type", `{"test":{"question":{"questionType":"essay","questionText":"Why?","correctAnswer":"x"}}}`, true},
		{"missing text", `{"test":{"question":{"questionType":"trueFalse","correctAnswer":"True"}}}`, true},
		{"answer not a choice", `{"test":{"question":{"questionType":"multipleChoice","questionText":"Pick","choices":["a","b"],"correctAnswer":"c"}}}`, true},
		{"answer choice case differs", `{"test":{"question":{"questionType":"trueFalse","questionText":"Sky is blue","choices":["True","False"],"correctAnswer":"true"}}}`, false},
		{"not json", "nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
