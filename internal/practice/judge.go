package practice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pavelanni/smartstudy/internal/llm/prompts"
)

// Prompter sends a prompt to a language model and returns its text reply.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// LLMJudge judges short answers with a language model.
type LLMJudge struct {
	prompter Prompter
}

// NewLLMJudge creates a judge backed by p.
func NewLLMJudge(p Prompter) *LLMJudge {
	return &LLMJudge{prompter: p}
}

// JudgeShortAnswer asks the model for a one-word verdict. Any failure,
// including an unrecognized reply, yields nil.
func (j *LLMJudge) JudgeShortAnswer(ctx context.Context, questionText, studentAnswer, correctAnswer string) *bool {
	if j.prompter == nil {
		return nil
	}
	prompt, err := prompts.BuildShortAnswerPrompt(questionText, studentAnswer, correctAnswer)
	if err != nil {
		slog.Error("build short answer prompt", "error", err)
		return nil
	}
	reply, err := j.prompter.Prompt(ctx, prompt)
	if err != nil {
		slog.Warn("short answer judgment failed", "error", err)
		return nil
	}
	verdict := ParseVerdict(reply)
	if verdict == nil {
		slog.Warn("unrecognized short answer verdict", "reply", reply)
	}
	return verdict
}

// ParseVerdict reads a "correct" or "incorrect" reply, ignoring case,
// surrounding whitespace and quote characters. Anything else yields nil.
func ParseVerdict(reply string) *bool {
	word := strings.ToLower(strings.Trim(reply, " \t\r\n\"'`"))
	var v bool
	switch word {
	case "correct":
		v = true
	case "incorrect":
		v = false
	default:
		return nil
	}
	return &v
}
