package practice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalPayload = `{
  "test": {
    "id": "t1",
    "title": "Capitals",
    "question": {
      "id": "q1",
      "questionType": "multipleChoice",
      "questionText": "What is the capital of France?",
      "choices": ["London", "Berlin", "Paris", "Rome"],
      "correctAnswer": "Paris",
      "explanation": "Paris is the capital of France."
    }
  }
}`

func capitalQuestion() *Question {
	return &Question{
		ID:            "q1",
		Type:          TypeMultipleChoice,
		Text:          "What is the capital of France?",
		Choices:       []string{"London", "Berlin", "Paris", "Rome"},
		CorrectAnswer: "Paris",
		Explanation:   "Paris is the capital of France.",
	}
}

func TestNormalize_Canonical(t *testing.T) {
	pkg := Normalize(canonicalPayload)
	require.NotNil(t, pkg)
	assert.Equal(t, "t1", pkg.ID)
	assert.Equal(t, "Capitals", pkg.Title)
	assert.Equal(t, capitalQuestion(), pkg.Question)
	assert.Equal(t, StateUnanswered, pkg.Question.State)
	assert.Equal(t, Unchecked, pkg.Question.Correctness)
}

func TestNormalize_CodeFence(t *testing.T) {
	fenced := "```json\n" + canonicalPayload + "\n```\nHope this helps!"
	pkg := Normalize(fenced)
	require.NotNil(t, pkg)
	assert.Equal(t, capitalQuestion(), pkg.Question)
}

func TestNormalize_Legacy(t *testing.T) {
	raw := `{"test":{"id":"old","title":"Quiz","questions":[
		{"questionType":"trueFalse","questionText":"Water boils at 100C at sea level.","choices":["True","False"],"correctAnswer":"True"},
		{"questionType":"shortAnswer","questionText":"Name a noble gas.","correctAnswer":"Neon"}
	]}}`
	pkg := Normalize(raw)
	require.NotNil(t, pkg)
	assert.Equal(t, "old", pkg.ID)
	assert.Equal(t, "Quiz", pkg.Title)
	assert.Equal(t, &Question{
		Type:          TypeTrueFalse,
		Text:          "Water boils at 100C at sea level.",
		Choices:       []string{"True", "False"},
		CorrectAnswer: "True",
	}, pkg.Question)
}

func TestNormalize_LegacyEmptyList(t *testing.T) {
	pkg := Normalize(`{"test":{"id":"x","title":"Empty","questions":[]}}`)
	require.NotNil(t, pkg)
	assert.Equal(t, "x", pkg.ID)
	assert.Equal(t, "Empty", pkg.Title)
	assert.Nil(t, pkg.Question)
}

func TestNormalize_NullQuestion(t *testing.T) {
	pkg := Normalize(EmptyQuestionsJSON)
	require.NotNil(t, pkg)
	assert.Nil(t, pkg.Question)
}

func TestNormalize_CaseInsensitiveKey(t *testing.T) {
	pkg := Normalize(`{"Test":{"Question":{"QuestionType":"shortAnswer","QuestionText":"2+2?","CorrectAnswer":"4"}}}`)
	require.NotNil(t, pkg)
	require.NotNil(t, pkg.Question)
	assert.True(t, pkg.Question.IsShortAnswer())
	assert.Equal(t, "4", pkg.Question.CorrectAnswer)
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"not json", "Sorry, I cannot help with that."},
		{"truncated", `{"test":{"question":{"questionText":"Wh`},
		{"fence only", "```"},
		{"wrong type", `{"test":{"question":{"questionText":42}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(tt.raw))
		})
	}
}

func TestNormalize_NoTest(t *testing.T) {
	pkg := Normalize(`{}`)
	require.NotNil(t, pkg)
	assert.Nil(t, pkg.Question)
	assert.Empty(t, pkg.ID)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", ` {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"trailing text", "```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}
