package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(BackendJSON, t.TempDir())
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachBackend runs fn against a JSON store and an in-memory SQLite store.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	t.Run("json", func(t *testing.T) {
		fn(t, newTestStore(t))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := New(BackendSQLite, ":memory:")
		if err != nil {
			t.Fatalf("New sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestFileCollection_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCollection[model.Class](filepath.Join(dir, "classes.json"))

	items, err := c.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll missing: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d", len(items))
	}

	if err := os.WriteFile(c.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err = c.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll corrupt: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected corrupt file to load empty, got %d", len(items))
	}
}

func TestFileCollection_Roundtrip(t *testing.T) {
	c := NewFileCollection[model.Class](filepath.Join(t.TempDir(), "nested", "classes.json"))
	want := []model.Class{{ID: "math", Name: "Math", TeacherID: "u001", StudentIDs: []string{"u002"}}}
	if err := c.SaveAll(want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := c.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Math" || got[0].StudentIDs[0] != "u002" {
		t.Fatalf("unexpected roundtrip result: %+v", got)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New("postgres", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty", nil, "a001"},
		{"sequential", []string{"a001", "a002"}, "a003"},
		{"gap uses max", []string{"a001", "a007", "a003"}, "a008"},
		{"non numeric ignored", []string{"a001", "a12x", "abc"}, "a002"},
		{"other prefix ignored", []string{"u050", "a002"}, "a003"},
		{"upper case prefix", []string{"A004"}, "a005"},
		{"beyond three digits", []string{"a999"}, "a1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextID("a", len(tt.ids), func(i int) string { return tt.ids[i] })
			if got != tt.want {
				t.Errorf("nextID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUsers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		count, err := s.UserCount()
		if err != nil || count != 0 {
			t.Fatalf("UserCount = %d, %v; want 0", count, err)
		}

		u, err := s.CreateUser(model.User{Username: "ann", DisplayName: "Ann", Role: model.UserRoleStudent})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if u.ID != "u001" {
			t.Errorf("expected id u001, got %q", u.ID)
		}
		if _, err := s.CreateUser(model.User{Username: "ANN"}); err == nil {
			t.Error("expected duplicate username error")
		}

		got, err := s.GetUserByUsername("Ann")
		if err != nil || got == nil {
			t.Fatalf("GetUserByUsername: %v, %v", got, err)
		}
		if got.DisplayName != "Ann" {
			t.Errorf("expected display name Ann, got %q", got.DisplayName)
		}

		got, err = s.GetUserByID("U001")
		if err != nil || got == nil {
			t.Fatalf("GetUserByID: %v, %v", got, err)
		}

		missing, err := s.GetUserByID("u404")
		if err != nil || missing != nil {
			t.Errorf("expected nil for missing user, got %v, %v", missing, err)
		}
	})
}

func TestAuthSessions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		token, err := s.CreateAuthSession("u001")
		if err != nil {
			t.Fatalf("CreateAuthSession: %v", err)
		}
		sess, err := s.GetAuthSession(token)
		if err != nil || sess == nil {
			t.Fatalf("GetAuthSession: %v, %v", sess, err)
		}
		if sess.UserID != "u001" {
			t.Errorf("expected user u001, got %q", sess.UserID)
		}
		ids, err := s.AuthSessionIDs()
		if err != nil || !ids[token] {
			t.Fatalf("AuthSessionIDs: %v, %v", ids, err)
		}

		if err := s.DeleteAuthSession(token); err != nil {
			t.Fatalf("DeleteAuthSession: %v", err)
		}
		sess, err = s.GetAuthSession(token)
		if err != nil || sess != nil {
			t.Errorf("expected deleted session to be gone, got %v, %v", sess, err)
		}
		ids, err = s.AuthSessionIDs()
		if err != nil || ids[token] {
			t.Errorf("expected deleted session missing from ids, got %v, %v", ids, err)
		}
	})
}

func TestPruneExpired(t *testing.T) {
	now := time.Now()
	sessions := []model.AuthSession{
		{ID: "old", ExpiresAt: now.Add(-time.Minute)},
		{ID: "fresh", ExpiresAt: now.Add(time.Hour)},
	}
	kept := pruneExpired(sessions, now)
	if len(kept) != 1 || kept[0].ID != "fresh" {
		t.Errorf("unexpected kept sessions: %+v", kept)
	}
}

func TestClassesAndEnrollment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		teacher, _ := s.CreateUser(model.User{Username: "tom", Role: model.UserRoleTeacher, Classes: []string{"math", "art"}})
		ann, _ := s.CreateUser(model.User{Username: "ann", Role: model.UserRoleStudent})
		bob, _ := s.CreateUser(model.User{Username: "bob", Role: model.UserRoleStudent})

		for _, c := range []model.Class{
			{ID: "math", Name: "Math", TeacherID: teacher.ID, StudentIDs: []string{ann.ID, teacher.ID}},
			{ID: "art", Name: "Art", TeacherID: teacher.ID},
		} {
			if err := s.SaveClass(c); err != nil {
				t.Fatalf("SaveClass: %v", err)
			}
		}

		classes, err := s.ClassesForUser(teacher.ID)
		if err != nil {
			t.Fatalf("ClassesForUser: %v", err)
		}
		if len(classes) != 2 || classes[0].ID != "math" || classes[1].ID != "art" {
			t.Fatalf("unexpected classes: %+v", classes)
		}

		if err := s.Enroll("MATH", bob.ID); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
		if err := s.Enroll("math", bob.ID); err != nil {
			t.Fatalf("Enroll again: %v", err)
		}
		bobAfter, _ := s.GetUserByID(bob.ID)
		if len(bobAfter.Classes) != 1 {
			t.Errorf("expected one class on bob, got %v", bobAfter.Classes)
		}

		students, err := s.StudentsForClass("math")
		if err != nil {
			t.Fatalf("StudentsForClass: %v", err)
		}
		if len(students) != 2 {
			t.Fatalf("expected 2 students (teacher filtered out), got %+v", students)
		}

		none, err := s.StudentsForClass("art")
		if err != nil || len(none) != 0 {
			t.Errorf("expected no students in art, got %v, %v", none, err)
		}
	})
}

func TestAssignmentsAndPracticeSets(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		a1, err := s.AddAssignment(model.Assignment{StudentID: "u002", ClassID: "math", Title: "HW1"})
		if err != nil {
			t.Fatalf("AddAssignment: %v", err)
		}
		a2, _ := s.AddAssignment(model.Assignment{StudentID: "u002", ClassID: "art", Title: "Sketch"})
		if a1.ID != "a001" || a2.ID != "a002" {
			t.Fatalf("unexpected ids %q, %q", a1.ID, a2.ID)
		}

		list, err := s.ListAssignments("U002", "Math")
		if err != nil {
			t.Fatalf("ListAssignments: %v", err)
		}
		if len(list) != 1 || list[0].Title != "HW1" {
			t.Fatalf("unexpected list: %+v", list)
		}
		if list, _ := s.ListAssignments("", "math"); len(list) != 0 {
			t.Errorf("expected empty list for blank student, got %d", len(list))
		}

		ps, err := s.CreatePracticeSet("u002", "math", a1.ID, practice.EmptyQuestionsJSON)
		if err != nil {
			t.Fatalf("CreatePracticeSet: %v", err)
		}
		if ps.ID == "" {
			t.Fatal("expected generated practice set id")
		}

		bySrc, err := s.GetPracticeSetForAssignment("A001")
		if err != nil || bySrc == nil || bySrc.ID != ps.ID {
			t.Fatalf("GetPracticeSetForAssignment: %v, %v", bySrc, err)
		}

		ps.Questions = "updated"
		if err := s.SavePracticeSet(ps); err != nil {
			t.Fatalf("SavePracticeSet: %v", err)
		}
		got, _ := s.GetPracticeSet(ps.ID)
		if got == nil || got.Questions != "updated" {
			t.Errorf("expected updated questions, got %+v", got)
		}

		missing, err := s.GetAssignment("a999")
		if err != nil || missing != nil {
			t.Errorf("expected nil for missing assignment, got %v, %v", missing, err)
		}
	})
}

func TestProfiles(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		p, err := s.GetProfile("u002")
		if err != nil || p != nil {
			t.Fatalf("expected no profile, got %v, %v", p, err)
		}

		bio := "Likes chess"
		created, err := s.UpdateProfile("u002", ProfileUpdate{Bio: &bio})
		if err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		if created.Bio != bio || created.StudentID != "u002" {
			t.Errorf("unexpected profile: %+v", created)
		}

		created.Points = 12
		created.BadgeTier = 1
		if err := s.SaveProfile(created); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}

		name := "Ann"
		updated, err := s.UpdateProfile("U002", ProfileUpdate{Name: &name})
		if err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		if updated.Points != 12 || updated.BadgeTier != 1 || updated.Bio != bio || updated.Name != "Ann" {
			t.Errorf("update should keep other fields, got %+v", updated)
		}
	})
}

func TestExportAssignments(t *testing.T) {
	s := newTestStore(t)
	ann, _ := s.CreateUser(model.User{Username: "ann", DisplayName: "Ann Lee", Role: model.UserRoleStudent})
	if err := s.SaveProfile(model.Profile{StudentID: ann.ID, Points: 23, BadgeTier: 2}); err != nil {
		t.Fatal(err)
	}

	a1, _ := s.AddAssignment(model.Assignment{StudentID: ann.ID, ClassID: "math", Title: "HW1"})
	a2, _ := s.AddAssignment(model.Assignment{StudentID: ann.ID, ClassID: "math", Title: "HW2"})
	payload := `{"test":{"question":{"questionType":"trueFalse","questionText":"2 is prime","choices":["True","False"],"correctAnswer":"True"}}}`
	if _, err := s.CreatePracticeSet(ann.ID, "math", a1.ID, payload); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePracticeSet(ann.ID, "math", a2.ID, "not json"); err != nil {
		t.Fatal(err)
	}

	results, err := s.ExportAssignments()
	if err != nil {
		t.Fatalf("ExportAssignments: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	r := results[0]
	if r.StudentName != "Ann Lee" || r.Points != 23 || r.BadgeTier != 2 {
		t.Errorf("unexpected student fields: %+v", r)
	}
	if !r.ValidPayload || r.Question == nil || r.Question.Type != "trueFalse" || r.Question.CorrectAnswer != "True" {
		t.Errorf("unexpected question export: %+v", r.Question)
	}

	if results[1].ValidPayload || results[1].Question != nil {
		t.Errorf("expected invalid payload for HW2, got %+v", results[1])
	}
	if results[1].RawQuestions != "not json" {
		t.Errorf("expected raw payload kept, got %q", results[1].RawQuestions)
	}
}
