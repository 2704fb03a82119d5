package store

import (
	"fmt"
	"strings"

	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
)

// ExportAssignments builds export-ready records for every assignment, with
// the normalized practice question and the student's current points.
func (s *Store) ExportAssignments() ([]model.AssignmentExport, error) {
	assignments, err := s.ListAllAssignments()
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	var results []model.AssignmentExport
	for _, a := range assignments {
		ae := model.AssignmentExport{
			AssignmentID:    a.ID,
			Title:           a.Title,
			ClassID:         a.ClassID,
			StudentID:       a.StudentID,
			TeacherComments: a.TeacherComments,
			PracticeSetID:   a.PracticeSetID,
		}

		user, err := s.GetUserByID(a.StudentID)
		if err != nil {
			return nil, fmt.Errorf("get user %s: %w", a.StudentID, err)
		}
		if user != nil {
			ae.StudentName = user.DisplayName
		}

		profile, err := s.GetProfile(a.StudentID)
		if err != nil {
			return nil, fmt.Errorf("get profile %s: %w", a.StudentID, err)
		}
		if profile != nil {
			ae.Points = profile.Points
			ae.BadgeTier = profile.BadgeTier
			if ae.StudentName == "" {
				ae.StudentName = profile.Name
			}
		}

		ps, err := s.GetPracticeSetForAssignment(a.ID)
		if err != nil {
			return nil, fmt.Errorf("get practice set for %s: %w", a.ID, err)
		}
		if ps == nil && a.PracticeSetID != "" {
			if ps, err = s.GetPracticeSet(a.PracticeSetID); err != nil {
				return nil, fmt.Errorf("get practice set %s: %w", a.PracticeSetID, err)
			}
		}
		if ps != nil {
			ae.PracticeSetID = ps.ID
			ae.RawQuestions = ps.Questions
			pkg := practice.Normalize(ps.Questions)
			ae.ValidPayload = pkg != nil
			if pkg != nil && pkg.Question != nil {
				q := pkg.Question
				ae.Question = &model.QuestionExport{
					Type:          strings.TrimSpace(string(q.Type)),
					Text:          q.Text,
					Choices:       q.Choices,
					CorrectAnswer: q.CorrectAnswer,
					Explanation:   q.Explanation,
				}
			}
		}

		results = append(results, ae)
	}
	return results, nil
}
