package study

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/smartstudy/internal/llm"
	"github.com/pavelanni/smartstudy/internal/llm/prompts"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
	"github.com/pavelanni/smartstudy/internal/store"
)

const generated = `{"test":{"question":{"questionType":"shortAnswer","questionText":"What is 7 x 8?","correctAnswer":"56","explanation":"7 x 8 = 56"}}}`

func TestMain(m *testing.M) {
	if err := prompts.Load(prompts.Templates); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeExtractor struct {
	text  string
	paths []string
}

func (f *fakeExtractor) ExtractText(path string) string {
	f.paths = append(f.paths, path)
	return f.text
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.BackendJSON, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAssignment(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveProfile(model.Profile{StudentID: "u002", Bio: "Loves basketball"}))
	ext := &fakeExtractor{text: "1. 7 x 8 = 54 (marked wrong)"}
	mock := llm.NewMockPrompter(llm.MockReply{Text: generated})
	svc := New(s, ext, mock, 0)

	a, err := svc.AddAssignment(context.Background(), NewAssignment{
		StudentID:       "u002",
		TeacherID:       "u001",
		ClassID:         "math",
		Title:           "Times tables",
		FilePath:        "/uploads/hw1.PDF",
		TeacherComments: "Focus on 7s and 8s",
	})
	require.NoError(t, err)

	assert.Equal(t, "a001", a.ID)
	assert.Equal(t, "hw1.PDF", a.FileName)
	assert.Equal(t, "1. 7 x 8 = 54 (marked wrong)", a.ExtractedText)
	assert.Equal(t, []string{"/uploads/hw1.PDF"}, ext.paths)

	require.Len(t, mock.Prompts, 1)
	assert.Equal(t, 1, mock.JSONCalls)
	assert.Contains(t, mock.Prompts[0], "7 x 8 = 54")
	assert.Contains(t, mock.Prompts[0], "Focus on 7s and 8s")
	assert.Contains(t, mock.Prompts[0], "Loves basketball")

	stored, err := s.GetAssignment("A001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEmpty(t, stored.PracticeSetID)

	ps, err := s.GetPracticeSet(stored.PracticeSetID)
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.Equal(t, generated, ps.Questions)
	assert.Equal(t, "a001", ps.SrcAssignmentID)
	assert.Equal(t, "u002", ps.StudentID)
	assert.Equal(t, "math", ps.ClassID)
}

func TestAddAssignment_SkipsModel(t *testing.T) {
	tests := []struct {
		name string
		path string
		text string
	}{
		{"not a pdf", "/uploads/scan.png", "some text"},
		{"no text", "/uploads/hw.pdf", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			mock := llm.NewMockPrompter(llm.MockReply{Text: generated})
			svc := New(s, &fakeExtractor{text: tt.text}, mock, 0)

			a, err := svc.AddAssignment(context.Background(), NewAssignment{StudentID: "u002", ClassID: "math", FilePath: tt.path})
			require.NoError(t, err)
			assert.Zero(t, mock.CallCount())

			ps, err := s.GetPracticeSetForAssignment(a.ID)
			require.NoError(t, err)
			require.NotNil(t, ps)
			assert.Equal(t, practice.EmptyQuestionsJSON, ps.Questions)
		})
	}
}

func TestAddAssignment_PromptFailure(t *testing.T) {
	s := newTestStore(t)
	mock := llm.NewMockPrompter(llm.MockReply{Err: errors.New("timeout")})
	svc := New(s, &fakeExtractor{text: "text"}, mock, 0)

	a, err := svc.AddAssignment(context.Background(), NewAssignment{StudentID: "u002", ClassID: "math", FilePath: "hw.pdf"})
	require.NoError(t, err)

	ps, err := s.GetPracticeSet(a.PracticeSetID)
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.Equal(t, practice.EmptyQuestionsJSON, ps.Questions)
}

func TestAddAssignment_StoresInvalidPayload(t *testing.T) {
	s := newTestStore(t)
	mock := llm.NewMockPrompter(llm.MockReply{Text: "Sure! Here is a question."})
	svc := New(s, &fakeExtractor{text: "text"}, mock, 0)

	a, err := svc.AddAssignment(context.Background(), NewAssignment{StudentID: "u002", ClassID: "math", FilePath: "hw.pdf"})
	require.NoError(t, err)

	ps, err := s.GetPracticeSet(a.PracticeSetID)
	require.NoError(t, err)
	assert.Equal(t, "Sure! Here is a question.", ps.Questions)
	assert.Nil(t, practice.Normalize(ps.Questions))
}

func TestAddAssignment_SequentialIDs(t *testing.T) {
	s := newTestStore(t)
	svc := New(s, &fakeExtractor{}, nil, 0)

	for _, want := range []string{"a001", "a002", "a003"} {
		a, err := svc.AddAssignment(context.Background(), NewAssignment{StudentID: "u002", ClassID: "math", FilePath: "x.pdf"})
		require.NoError(t, err)
		assert.Equal(t, want, a.ID)
	}
}

func TestRegeneratePracticeSet(t *testing.T) {
	s := newTestStore(t)
	mock := llm.NewMockPrompter(llm.MockReply{Text: practice.EmptyQuestionsJSON}, llm.MockReply{Text: generated})
	svc := New(s, &fakeExtractor{text: "text"}, mock, 0)

	a, err := svc.AddAssignment(context.Background(), NewAssignment{StudentID: "u002", ClassID: "math", FilePath: "hw.pdf"})
	require.NoError(t, err)

	ps, err := svc.RegeneratePracticeSet(context.Background(), "A001")
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.Equal(t, a.PracticeSetID, ps.ID, "existing practice set is overwritten in place")
	assert.Equal(t, generated, ps.Questions)

	stored, err := s.GetPracticeSet(a.PracticeSetID)
	require.NoError(t, err)
	assert.Equal(t, generated, stored.Questions)
}

func TestRegeneratePracticeSet_CreatesMissing(t *testing.T) {
	s := newTestStore(t)
	a, err := s.AddAssignment(model.Assignment{StudentID: "u002", ClassID: "math", FilePath: "hw.pdf", ExtractedText: "text"})
	require.NoError(t, err)

	mock := llm.NewMockPrompter(llm.MockReply{Text: generated})
	svc := New(s, &fakeExtractor{}, mock, 0)

	ps, err := svc.RegeneratePracticeSet(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, ps)

	stored, err := s.GetAssignment(a.ID)
	require.NoError(t, err)
	assert.Equal(t, ps.ID, stored.PracticeSetID)
}

func TestRegeneratePracticeSet_UnknownAssignment(t *testing.T) {
	svc := New(newTestStore(t), &fakeExtractor{}, nil, 0)
	ps, err := svc.RegeneratePracticeSet(context.Background(), "a999")
	assert.NoError(t, err)
	assert.Nil(t, ps)
}
