// Package practice turns raw model output into a practice question and
// drives answer checking for it.
package practice

import "strings"

// QuestionType is the kind of practice question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multipleChoice"
	TypeTrueFalse      QuestionType = "trueFalse"
	TypeShortAnswer    QuestionType = "shortAnswer"
)

// Correctness is the outcome of checking an answer.
type Correctness int

const (
	Unchecked Correctness = iota
	Correct
	Incorrect
	// Indeterminate means the answer could not be judged.
	Indeterminate
)

func (c Correctness) String() string {
	switch c {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// State is the position of a question in its answer lifecycle.
type State int

const (
	StateUnanswered State = iota
	StateSelected
	// StateChecking means a short answer is waiting for a judgment.
	StateChecking
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateSelected:
		return "selected"
	case StateChecking:
		return "checking"
	case StateResolved:
		return "resolved"
	default:
		return "unanswered"
	}
}

// Question is one practice question. The exported JSON fields come from the
// model payload; the rest is per-session answer state and is never persisted.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"questionType"`
	Text          string       `json:"questionText"`
	Choices       []string     `json:"choices"`
	CorrectAnswer string       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`

	SelectedChoice string      `json:"-"`
	Response       string      `json:"-"`
	Correctness    Correctness `json:"-"`
	State          State       `json:"-"`

	// correctness before the in-flight short-answer check started
	checkedFrom Correctness
}

// TestPackage is a normalized practice set: one active question.
type TestPackage struct {
	ID       string
	Title    string
	Question *Question
}

// IsShortAnswer reports whether the question is answered with free text.
func (q *Question) IsShortAnswer() bool {
	return strings.EqualFold(string(q.Type), string(TypeShortAnswer))
}

// ExplanationVisible reports whether the question has been submitted this round.
func (q *Question) ExplanationVisible() bool {
	return q.State == StateChecking || q.State == StateResolved
}

// acceptsAnswer reports whether the answer may still change. Once the
// question has been submitted only Reset reopens it.
func (q *Question) acceptsAnswer() bool {
	return q != nil && !q.ExplanationVisible()
}

// Select picks a choice. The free-text response is left alone. Ignored once
// the question has been submitted.
func (q *Question) Select(choice string) {
	if !q.acceptsAnswer() {
		return
	}
	q.SelectedChoice = choice
	q.Correctness = Unchecked
	q.State = StateSelected
}

// SetResponse records the free-text answer. Ignored once the question has
// been submitted.
func (q *Question) SetResponse(text string) {
	if !q.acceptsAnswer() {
		return
	}
	q.Response = text
	q.Correctness = Unchecked
	q.State = StateSelected
}

// Reset returns the question to Unanswered from any state.
func (q *Question) Reset() {
	if q == nil {
		return
	}
	q.SelectedChoice = ""
	q.Response = ""
	q.Correctness = Unchecked
	q.State = StateUnanswered
	q.checkedFrom = Unchecked
}
