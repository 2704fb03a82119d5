package practice

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/smartstudy/internal/llm/prompts"
)

func TestMain(m *testing.M) {
	if err := prompts.Load(prompts.Templates); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubPrompter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubPrompter) Prompt(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  *bool
	}{
		{"correct", boolPtr(true)},
		{"Correct", boolPtr(true)},
		{"  CORRECT\n", boolPtr(true)},
		{`"correct"`, boolPtr(true)},
		{"`\"correct\"`", boolPtr(true)},
		{"'incorrect'", boolPtr(false)},
		{"incorrect", boolPtr(false)},
		{"Correct.", nil},
		{"The answer is correct", nil},
		{"partially correct", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.reply))
		})
	}
}

func TestLLMJudge(t *testing.T) {
	p := &stubPrompter{reply: "correct"}
	j := NewLLMJudge(p)

	got := j.JudgeShortAnswer(context.Background(), "What gas do plants absorb?", "CO2", "carbon dioxide")
	require.NotNil(t, got)
	assert.True(t, *got)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "What gas do plants absorb?")
	assert.Contains(t, p.prompts[0], "CO2")
	assert.Contains(t, p.prompts[0], "carbon dioxide")
}

func TestLLMJudge_Error(t *testing.T) {
	j := NewLLMJudge(&stubPrompter{err: errors.New("connection refused")})
	assert.Nil(t, j.JudgeShortAnswer(context.Background(), "q", "a", "b"))
}

func TestLLMJudge_NoPrompter(t *testing.T) {
	j := NewLLMJudge(nil)
	assert.Nil(t, j.JudgeShortAnswer(context.Background(), "q", "a", "b"))
}
