package practice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJudge struct {
	verdict *bool
	calls   []string
}

func (f *fakeJudge) JudgeShortAnswer(_ context.Context, _, studentAnswer, _ string) *bool {
	f.calls = append(f.calls, studentAnswer)
	return f.verdict
}

type award struct {
	studentID     string
	isShortAnswer bool
}

type fakeAwarder struct {
	awards []award
}

func (f *fakeAwarder) AwardPoint(_ context.Context, studentID string, isShortAnswer bool) {
	f.awards = append(f.awards, award{studentID, isShortAnswer})
}

func boolPtr(b bool) *bool { return &b }

func shortAnswerQuestion() *Question {
	return &Question{
		Type:          TypeShortAnswer,
		Text:          "What gas do plants absorb?",
		CorrectAnswer: "carbon dioxide",
	}
}

func TestCheckAnswer_MultipleChoiceCaseInsensitive(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	q.Select("paris")
	e.CheckAnswer(context.Background(), "u001", q)

	assert.Equal(t, Correct, q.Correctness)
	assert.Equal(t, StateResolved, q.State)
	assert.True(t, q.ExplanationVisible())
	assert.Equal(t, []award{{"u001", false}}, awarder.awards)
}

func TestCheckAnswer_WrongChoice(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	q.Select("Rome")
	e.CheckAnswer(context.Background(), "u001", q)

	assert.Equal(t, Incorrect, q.Correctness)
	assert.Empty(t, awarder.awards)
}

func TestCheckAnswer_NoSelection(t *testing.T) {
	e := NewEngine(nil, nil)
	q := capitalQuestion()

	e.CheckAnswer(context.Background(), "u001", q)

	assert.Equal(t, Incorrect, q.Correctness)
	assert.True(t, q.ExplanationVisible())
}

func TestCheckAnswer_Idempotent(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	q.Select("Paris")
	e.CheckAnswer(context.Background(), "u001", q)
	e.CheckAnswer(context.Background(), "u001", q)

	assert.Equal(t, Correct, q.Correctness)
	assert.Len(t, awarder.awards, 1)
}

func TestSelect_RefusedAfterCheck(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	q.Select("Berlin")
	e.CheckAnswer(context.Background(), "u001", q)
	require.Equal(t, Incorrect, q.Correctness)

	q.Select("Paris")
	assert.Equal(t, "Berlin", q.SelectedChoice)
	assert.Equal(t, StateResolved, q.State)
	assert.Equal(t, Incorrect, q.Correctness)

	e.CheckAnswer(context.Background(), "u001", q)
	assert.Equal(t, Incorrect, q.Correctness)
	assert.Empty(t, awarder.awards)
}

func TestCheckAnswer_RepeatedCorrectAwardsOnce(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	for i := 0; i < 5; i++ {
		q.Select("Paris")
		e.CheckAnswer(context.Background(), "u001", q)
	}

	assert.Equal(t, Correct, q.Correctness)
	assert.Equal(t, StateResolved, q.State)
	assert.Len(t, awarder.awards, 1)
}

func TestReset_ThenSelectAndCheck(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(nil, awarder)
	q := capitalQuestion()

	q.Select("Berlin")
	e.CheckAnswer(context.Background(), "u001", q)

	q.Reset()
	q.Select("Paris")
	assert.Equal(t, StateSelected, q.State)
	assert.False(t, q.ExplanationVisible())

	e.CheckAnswer(context.Background(), "u001", q)
	assert.Equal(t, Correct, q.Correctness)
	assert.Len(t, awarder.awards, 1)
}

func TestSetResponse_RefusedAfterCheck(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(&fakeJudge{verdict: boolPtr(false)}, awarder)
	q := shortAnswerQuestion()

	q.SetResponse("oxygen")
	e.CheckAnswer(context.Background(), "u002", q)
	require.Equal(t, Incorrect, q.Correctness)

	q.SetResponse("carbon dioxide")
	assert.Equal(t, "oxygen", q.Response)
	assert.Equal(t, StateResolved, q.State)
}

func TestCheckAnswer_ShortAnswerCorrect(t *testing.T) {
	judge := &fakeJudge{verdict: boolPtr(true)}
	awarder := &fakeAwarder{}
	e := NewEngine(judge, awarder)
	q := shortAnswerQuestion()

	q.SetResponse("CO2")
	e.CheckAnswer(context.Background(), "u002", q)

	assert.Equal(t, Correct, q.Correctness)
	assert.Equal(t, "CO2", q.SelectedChoice)
	assert.Equal(t, []string{"CO2"}, judge.calls)
	assert.Equal(t, []award{{"u002", true}}, awarder.awards)
}

func TestCheckAnswer_ShortAnswerIncorrect(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(&fakeJudge{verdict: boolPtr(false)}, awarder)
	q := shortAnswerQuestion()

	q.SetResponse("oxygen")
	e.CheckAnswer(context.Background(), "u002", q)

	assert.Equal(t, Incorrect, q.Correctness)
	assert.Empty(t, awarder.awards)
}

func TestCheckAnswer_ShortAnswerUndetermined(t *testing.T) {
	awarder := &fakeAwarder{}
	e := NewEngine(&fakeJudge{}, awarder)
	q := shortAnswerQuestion()

	q.SetResponse("maybe")
	e.CheckAnswer(context.Background(), "u002", q)

	assert.Equal(t, Indeterminate, q.Correctness)
	assert.Equal(t, StateResolved, q.State)
	assert.True(t, q.ExplanationVisible())
	assert.Empty(t, awarder.awards)
}

func TestBeginCheck_ShortAnswerPending(t *testing.T) {
	judge := &fakeJudge{verdict: boolPtr(true)}
	e := NewEngine(judge, nil)
	q := shortAnswerQuestion()
	q.SetResponse("CO2")

	pending := e.BeginCheck(context.Background(), "u002", q)
	require.True(t, pending)
	assert.Equal(t, StateChecking, q.State)
	assert.Equal(t, Indeterminate, q.Correctness)
	assert.True(t, q.ExplanationVisible())
	assert.Empty(t, judge.calls)

	// Input is locked while the judgment is in flight.
	q.SetResponse("something else")
	q.Select("x")
	assert.Equal(t, "CO2", q.Response)
	assert.Equal(t, "CO2", q.SelectedChoice)

	// A second check does not start another judgment.
	assert.False(t, e.BeginCheck(context.Background(), "u002", q))

	e.FinishCheck(context.Background(), "u002", q)
	assert.Equal(t, Correct, q.Correctness)
	assert.Len(t, judge.calls, 1)
}

func TestFinishCheck_AfterReset(t *testing.T) {
	judge := &fakeJudge{verdict: boolPtr(true)}
	awarder := &fakeAwarder{}
	e := NewEngine(judge, awarder)
	q := shortAnswerQuestion()
	q.SetResponse("CO2")

	require.True(t, e.BeginCheck(context.Background(), "u002", q))
	q.Reset()
	e.FinishCheck(context.Background(), "u002", q)

	assert.Equal(t, StateUnanswered, q.State)
	assert.Equal(t, Unchecked, q.Correctness)
	assert.Empty(t, judge.calls)
	assert.Empty(t, awarder.awards)
}

func TestBeginCheck_MultipleChoiceNotPending(t *testing.T) {
	e := NewEngine(nil, nil)
	q := capitalQuestion()
	q.Select("Paris")
	assert.False(t, e.BeginCheck(context.Background(), "u001", q))
	assert.Equal(t, StateResolved, q.State)
}

func TestReset(t *testing.T) {
	e := NewEngine(nil, nil)
	q := capitalQuestion()
	q.Select("Paris")
	e.CheckAnswer(context.Background(), "u001", q)

	q.Reset()

	assert.Empty(t, q.SelectedChoice)
	assert.Empty(t, q.Response)
	assert.Equal(t, Unchecked, q.Correctness)
	assert.Equal(t, StateUnanswered, q.State)
	assert.False(t, q.ExplanationVisible())
}

func TestSelect_KeepsResponse(t *testing.T) {
	q := shortAnswerQuestion()
	q.SetResponse("CO2")
	q.Select("other")
	assert.Equal(t, "CO2", q.Response)
	assert.Equal(t, "other", q.SelectedChoice)
}

func TestNilQuestion(t *testing.T) {
	e := NewEngine(nil, nil)
	var q *Question
	assert.NotPanics(t, func() {
		e.CheckAnswer(context.Background(), "u001", q)
		q.Select("a")
		q.SetResponse("b")
		q.Reset()
	})
}
