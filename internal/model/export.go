package model

import "time"

// PortalExport is the top-level JSON structure written by the export command.
type PortalExport struct {
	ExportedAt  time.Time          `json:"exported_at"`
	Assignments []AssignmentExport `json:"assignments"`
}

// AssignmentExport holds one assignment together with its practice question.
type AssignmentExport struct {
	AssignmentID    string          `json:"assignment_id"`
	Title           string          `json:"title"`
	ClassID         string          `json:"class_id"`
	StudentID       string          `json:"student_id"`
	StudentName     string          `json:"student_name"`
	TeacherComments string          `json:"teacher_comments"`
	PracticeSetID   string          `json:"practice_set_id,omitempty"`
	RawQuestions    string          `json:"raw_questions,omitempty"`
	Question        *QuestionExport `json:"question,omitempty"`
	ValidPayload    bool            `json:"valid_payload"`
	Points          int             `json:"points"`
	BadgeTier       int             `json:"badge_tier"`
}

// QuestionExport is the normalized practice question for export.
type QuestionExport struct {
	Type          string   `json:"type"`
	Text          string   `json:"text"`
	Choices       []string `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}
