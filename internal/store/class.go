package store

import (
	"strings"

	"github.com/pavelanni/smartstudy/internal/model"
)

// ClassesForUser returns the classes listed on the user's record, in that order.
func (s *Store) ClassesForUser(userID string) ([]model.Class, error) {
	user, err := s.GetUserByID(userID)
	if err != nil || user == nil || len(user.Classes) == 0 {
		return nil, err
	}
	classes, err := s.classes.LoadAll()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Class, len(classes))
	for _, c := range classes {
		byID[strings.ToLower(c.ID)] = c
	}
	var result []model.Class
	for _, id := range user.Classes {
		if c, ok := byID[strings.ToLower(id)]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// ListClasses returns all classes.
func (s *Store) ListClasses() ([]model.Class, error) {
	return s.classes.LoadAll()
}

// GetClass returns a class by ID, or nil if not found.
func (s *Store) GetClass(id string) (*model.Class, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	classes, err := s.classes.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(classes, func(c model.Class) bool { return strings.EqualFold(c.ID, id) }), nil
}

// SaveClass replaces the class with the same ID, or appends it.
func (s *Store) SaveClass(c model.Class) error {
	classes, err := s.classes.LoadAll()
	if err != nil {
		return err
	}
	classes = upsert(classes, c, func(x model.Class) bool { return strings.EqualFold(x.ID, c.ID) })
	return s.classes.SaveAll(classes)
}

// Enroll records a student in a class and adds the class to the student's user record.
func (s *Store) Enroll(classID, studentID string) error {
	enrollments, err := s.enrollments.LoadAll()
	if err != nil {
		return err
	}
	e := model.Enrollment{ClassID: classID, StudentID: studentID}
	enrollments = upsert(enrollments, e, func(x model.Enrollment) bool {
		return strings.EqualFold(x.ClassID, classID) && strings.EqualFold(x.StudentID, studentID)
	})
	if err := s.enrollments.SaveAll(enrollments); err != nil {
		return err
	}

	user, err := s.GetUserByID(studentID)
	if err != nil || user == nil {
		return err
	}
	for _, id := range user.Classes {
		if strings.EqualFold(id, classID) {
			return nil
		}
	}
	user.Classes = append(user.Classes, classID)
	return s.SaveUser(*user)
}

// StudentsForClass returns the student users of a class. Membership comes
// from the class's own student list and from enrollments; users whose role
// is not student are skipped.
func (s *Store) StudentsForClass(classID string) ([]model.User, error) {
	ids := make(map[string]bool)
	class, err := s.GetClass(classID)
	if err != nil {
		return nil, err
	}
	if class != nil {
		for _, id := range class.StudentIDs {
			ids[strings.ToLower(id)] = true
		}
	}
	enrollments, err := s.enrollments.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		if strings.EqualFold(e.ClassID, classID) {
			ids[strings.ToLower(e.StudentID)] = true
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	users, err := s.users.LoadAll()
	if err != nil {
		return nil, err
	}
	var students []model.User
	for _, u := range users {
		if ids[strings.ToLower(u.ID)] && u.Role == model.UserRoleStudent {
			students = append(students, u)
		}
	}
	return students, nil
}
