package practice

import (
	"context"
	"log/slog"
	"strings"
)

// Judge decides whether a free-text answer is correct. A nil result means
// the answer could not be judged.
type Judge interface {
	JudgeShortAnswer(ctx context.Context, questionText, studentAnswer, correctAnswer string) *bool
}

// Awarder credits a student for an answer that has just become correct.
type Awarder interface {
	AwardPoint(ctx context.Context, studentID string, isShortAnswer bool)
}

// Engine checks answers and awards points on transitions to correct.
type Engine struct {
	judge   Judge
	awarder Awarder
}

// NewEngine creates an Engine. Either dependency may be nil: without a judge
// short answers resolve as indeterminate, without an awarder nothing is credited.
func NewEngine(judge Judge, awarder Awarder) *Engine {
	return &Engine{judge: judge, awarder: awarder}
}

// CheckAnswer evaluates the current answer to completion.
func (e *Engine) CheckAnswer(ctx context.Context, studentID string, q *Question) {
	if e.BeginCheck(ctx, studentID, q) {
		e.FinishCheck(ctx, studentID, q)
	}
}

// BeginCheck starts evaluating the current answer. It is a no-op once the
// question has been submitted this round. Choice questions are
// resolved immediately. For a short answer the response becomes the
// selected answer, the question enters StateChecking with indeterminate
// correctness, and BeginCheck returns true; the caller can render that
// state before calling FinishCheck.
func (e *Engine) BeginCheck(ctx context.Context, studentID string, q *Question) (pending bool) {
	if q == nil || q.ExplanationVisible() {
		return false
	}
	before := q.Correctness

	if q.IsShortAnswer() {
		q.SelectedChoice = q.Response
		q.Correctness = Indeterminate
		q.State = StateChecking
		q.checkedFrom = before
		return true
	}

	switch {
	case q.SelectedChoice == "":
		q.Correctness = Incorrect
	case strings.EqualFold(q.SelectedChoice, q.CorrectAnswer):
		q.Correctness = Correct
	default:
		q.Correctness = Incorrect
	}
	q.State = StateResolved
	e.award(ctx, studentID, q, before)
	return false
}

// FinishCheck asks the judge about a short answer in StateChecking and
// resolves it. It does nothing for a question in any other state, so a
// reset during the judgment wins.
func (e *Engine) FinishCheck(ctx context.Context, studentID string, q *Question) {
	if q == nil || q.State != StateChecking {
		return
	}
	var verdict *bool
	if e.judge != nil {
		verdict = e.judge.JudgeShortAnswer(ctx, q.Text, q.SelectedChoice, q.CorrectAnswer)
	}
	switch {
	case verdict == nil:
		q.Correctness = Indeterminate
	case *verdict:
		q.Correctness = Correct
	default:
		q.Correctness = Incorrect
	}
	q.State = StateResolved
	e.award(ctx, studentID, q, q.checkedFrom)
	q.checkedFrom = Unchecked
}

func (e *Engine) award(ctx context.Context, studentID string, q *Question, before Correctness) {
	if before == Correct || q.Correctness != Correct {
		return
	}
	if e.awarder == nil {
		return
	}
	slog.Debug("answer became correct", "student_id", studentID, "question_id", q.ID, "type", q.Type)
	e.awarder.AwardPoint(ctx, studentID, q.IsShortAnswer())
}
