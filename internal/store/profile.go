package store

import (
	"strings"

	"github.com/pavelanni/smartstudy/internal/model"
)

// GetProfile returns the profile of a student, or nil if none exists.
func (s *Store) GetProfile(studentID string) (*model.Profile, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, nil
	}
	profiles, err := s.profiles.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(profiles, func(p model.Profile) bool { return strings.EqualFold(p.StudentID, studentID) }), nil
}

// SaveProfile writes the full profile record keyed by student ID, creating it if missing.
func (s *Store) SaveProfile(p model.Profile) error {
	profiles, err := s.profiles.LoadAll()
	if err != nil {
		return err
	}
	profiles = upsert(profiles, p, func(x model.Profile) bool { return strings.EqualFold(x.StudentID, p.StudentID) })
	return s.profiles.SaveAll(profiles)
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name          *string
	PictureURL    *string
	Bio           *string
	GradeLevel    *string
	GuardianName  *string
	GuardianEmail *string
}

// UpdateProfile applies upd to the student's profile, creating the profile if
// missing. Points and badge tier are never touched here.
func (s *Store) UpdateProfile(studentID string, upd ProfileUpdate) (model.Profile, error) {
	existing, err := s.GetProfile(studentID)
	if err != nil {
		return model.Profile{}, err
	}
	p := model.Profile{StudentID: studentID}
	if existing != nil {
		p = *existing
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Name, upd.Name)
	set(&p.PictureURL, upd.PictureURL)
	set(&p.Bio, upd.Bio)
	set(&p.GradeLevel, upd.GradeLevel)
	set(&p.GuardianName, upd.GuardianName)
	set(&p.GuardianEmail, upd.GuardianEmail)

	if err := s.SaveProfile(p); err != nil {
		return p, err
	}
	return p, nil
}
