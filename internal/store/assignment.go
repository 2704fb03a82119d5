package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/smartstudy/internal/model"
)

// AddAssignment appends an assignment, assigning the next a### ID.
func (s *Store) AddAssignment(a model.Assignment) (model.Assignment, error) {
	assignments, err := s.assignments.LoadAll()
	if err != nil {
		return model.Assignment{}, err
	}
	a.ID = nextID("a", len(assignments), func(i int) string { return assignments[i].ID })
	assignments = append(assignments, a)
	if err := s.assignments.SaveAll(assignments); err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

// SaveAssignment replaces the assignment with the same ID, or appends it.
func (s *Store) SaveAssignment(a model.Assignment) error {
	assignments, err := s.assignments.LoadAll()
	if err != nil {
		return err
	}
	assignments = upsert(assignments, a, func(x model.Assignment) bool { return strings.EqualFold(x.ID, a.ID) })
	return s.assignments.SaveAll(assignments)
}

// GetAssignment returns an assignment by ID, or nil if not found.
func (s *Store) GetAssignment(id string) (*model.Assignment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	assignments, err := s.assignments.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(assignments, func(a model.Assignment) bool { return strings.EqualFold(a.ID, id) }), nil
}

// ListAssignments returns the assignments of one student in one class.
func (s *Store) ListAssignments(studentID, classID string) ([]model.Assignment, error) {
	if strings.TrimSpace(studentID) == "" || strings.TrimSpace(classID) == "" {
		return nil, nil
	}
	assignments, err := s.assignments.LoadAll()
	if err != nil {
		return nil, err
	}
	var result []model.Assignment
	for _, a := range assignments {
		if strings.EqualFold(a.StudentID, studentID) && strings.EqualFold(a.ClassID, classID) {
			result = append(result, a)
		}
	}
	return result, nil
}

// ListAllAssignments returns every assignment.
func (s *Store) ListAllAssignments() ([]model.Assignment, error) {
	return s.assignments.LoadAll()
}

// CreatePracticeSet stores a new practice set with a fresh ID.
func (s *Store) CreatePracticeSet(studentID, classID, srcAssignmentID, questions string) (model.PracticeSet, error) {
	ps := model.PracticeSet{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		ClassID:         classID,
		SrcAssignmentID: srcAssignmentID,
		Questions:       questions,
	}
	if err := s.SavePracticeSet(ps); err != nil {
		return model.PracticeSet{}, err
	}
	return ps, nil
}

// SavePracticeSet replaces the practice set with the same ID, or appends it.
func (s *Store) SavePracticeSet(ps model.PracticeSet) error {
	sets, err := s.practiceSets.LoadAll()
	if err != nil {
		return err
	}
	sets = upsert(sets, ps, func(x model.PracticeSet) bool { return strings.EqualFold(x.ID, ps.ID) })
	return s.practiceSets.SaveAll(sets)
}

// GetPracticeSet returns a practice set by ID, or nil if not found.
func (s *Store) GetPracticeSet(id string) (*model.PracticeSet, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	sets, err := s.practiceSets.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(sets, func(ps model.PracticeSet) bool { return strings.EqualFold(ps.ID, id) }), nil
}

// GetPracticeSetForAssignment returns the practice set generated from an assignment, or nil.
func (s *Store) GetPracticeSetForAssignment(assignmentID string) (*model.PracticeSet, error) {
	if strings.TrimSpace(assignmentID) == "" {
		return nil, nil
	}
	sets, err := s.practiceSets.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(sets, func(ps model.PracticeSet) bool { return strings.EqualFold(ps.SrcAssignmentID, assignmentID) }), nil
}
