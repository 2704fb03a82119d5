// Package study creates assignments and generates their practice sets.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/smartstudy/internal/extract"
	"github.com/pavelanni/smartstudy/internal/llm/prompts"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
)

// Store is the persistence the service needs.
type Store interface {
	AddAssignment(a model.Assignment) (model.Assignment, error)
	SaveAssignment(a model.Assignment) error
	GetAssignment(id string) (*model.Assignment, error)
	GetProfile(studentID string) (*model.Profile, error)
	CreatePracticeSet(studentID, classID, srcAssignmentID, questions string) (model.PracticeSet, error)
	SavePracticeSet(ps model.PracticeSet) error
	GetPracticeSet(id string) (*model.PracticeSet, error)
	GetPracticeSetForAssignment(assignmentID string) (*model.PracticeSet, error)
}

// Service turns uploaded assignments into practice sets.
type Service struct {
	store     Store
	extractor extract.Extractor
	prompter  practice.Prompter
	timeout   time.Duration
}

// New creates a Service. A zero timeout leaves prompt calls bounded only by
// the caller's context.
func New(store Store, extractor extract.Extractor, prompter practice.Prompter, timeout time.Duration) *Service {
	return &Service{store: store, extractor: extractor, prompter: prompter, timeout: timeout}
}

// NewAssignment is the input for AddAssignment.
type NewAssignment struct {
	StudentID       string
	TeacherID       string
	ClassID         string
	Title           string
	FilePath        string
	TeacherComments string
}

// AddAssignment stores a graded assignment and generates its practice set.
// Extraction and generation are best effort: on failure the practice set
// holds a payload with no question, and the upload still succeeds.
func (s *Service) AddAssignment(ctx context.Context, in NewAssignment) (model.Assignment, error) {
	text := s.extractor.ExtractText(in.FilePath)

	a, err := s.store.AddAssignment(model.Assignment{
		StudentID:       in.StudentID,
		TeacherID:       in.TeacherID,
		ClassID:         in.ClassID,
		Title:           in.Title,
		FileName:        filepath.Base(in.FilePath),
		FilePath:        in.FilePath,
		TeacherComments: in.TeacherComments,
		ExtractedText:   text,
	})
	if err != nil {
		return model.Assignment{}, fmt.Errorf("add assignment: %w", err)
	}

	questions := s.generate(ctx, a)
	ps, err := s.store.CreatePracticeSet(a.StudentID, a.ClassID, a.ID, questions)
	if err != nil {
		return a, fmt.Errorf("create practice set: %w", err)
	}
	a.PracticeSetID = ps.ID
	if err := s.store.SaveAssignment(a); err != nil {
		return a, fmt.Errorf("link practice set: %w", err)
	}

	slog.Info("added assignment", "assignment_id", a.ID, "student_id", a.StudentID, "class_id", a.ClassID,
		"practice_set_id", ps.ID, "extracted_chars", len(text))
	return a, nil
}

// RegeneratePracticeSet asks for a fresh question for an existing assignment
// and overwrites its practice set, creating one if needed. It returns nil
// if the assignment does not exist.
func (s *Service) RegeneratePracticeSet(ctx context.Context, assignmentID string) (*model.PracticeSet, error) {
	a, err := s.store.GetAssignment(assignmentID)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a == nil {
		return nil, nil
	}

	questions := s.generate(ctx, *a)

	existing, err := s.store.GetPracticeSetForAssignment(a.ID)
	if err != nil {
		return nil, fmt.Errorf("get practice set: %w", err)
	}
	if existing == nil && a.PracticeSetID != "" {
		if existing, err = s.store.GetPracticeSet(a.PracticeSetID); err != nil {
			return nil, fmt.Errorf("get practice set: %w", err)
		}
	}

	var ps model.PracticeSet
	if existing != nil {
		ps = *existing
		ps.StudentID = a.StudentID
		ps.ClassID = a.ClassID
		ps.SrcAssignmentID = a.ID
		ps.Questions = questions
		if err := s.store.SavePracticeSet(ps); err != nil {
			return nil, fmt.Errorf("save practice set: %w", err)
		}
	} else {
		if ps, err = s.store.CreatePracticeSet(a.StudentID, a.ClassID, a.ID, questions); err != nil {
			return nil, fmt.Errorf("create practice set: %w", err)
		}
	}

	if !strings.EqualFold(a.PracticeSetID, ps.ID) {
		a.PracticeSetID = ps.ID
		if err := s.store.SaveAssignment(*a); err != nil {
			return nil, fmt.Errorf("link practice set: %w", err)
		}
	}

	slog.Info("regenerated practice set", "assignment_id", a.ID, "practice_set_id", ps.ID)
	return &ps, nil
}

// jsonPrompter is a prompter that can require a JSON object reply.
type jsonPrompter interface {
	PromptJSON(ctx context.Context, prompt string) (string, error)
}

// generate returns the model's payload for a, or the empty payload when the
// file is not a PDF, no text was extracted, or the prompt fails.
func (s *Service) generate(ctx context.Context, a model.Assignment) string {
	if !extract.IsPDF(a.FilePath) || strings.TrimSpace(a.ExtractedText) == "" {
		slog.Info("skipping practice generation", "assignment_id", a.ID, "file", a.FileName,
			"extracted_chars", len(a.ExtractedText))
		return practice.EmptyQuestionsJSON
	}
	if s.prompter == nil {
		return practice.EmptyQuestionsJSON
	}

	var bio string
	profile, err := s.store.GetProfile(a.StudentID)
	if err != nil {
		slog.Warn("load profile for prompt", "student_id", a.StudentID, "error", err)
	} else if profile != nil {
		bio = profile.Bio
	}

	prompt, err := prompts.BuildPracticeQuestionPrompt(a.ExtractedText, a.TeacherComments, bio)
	if err != nil {
		slog.Error("build practice prompt", "assignment_id", a.ID, "error", err)
		return practice.EmptyQuestionsJSON
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	var reply string
	if jp, ok := s.prompter.(jsonPrompter); ok {
		reply, err = jp.PromptJSON(ctx, prompt)
	} else {
		reply, err = s.prompter.Prompt(ctx, prompt)
	}
	if err != nil {
		slog.Warn("practice generation failed", "assignment_id", a.ID, "error", err)
		return practice.EmptyQuestionsJSON
	}

	if err := practice.Validate(reply); err != nil {
		slog.Warn("practice payload does not match the expected shape", "assignment_id", a.ID, "error", err)
	}
	return reply
}
