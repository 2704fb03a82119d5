package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a portal user.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"displayName"`
	PasswordHash string   `json:"passwordHash"`
	Role         UserRole `json:"role"`
	Classes      []string `json:"classes"`
}

// IsTeacher reports whether the user may upload assignments and regenerate practice sets.
func (u *User) IsTeacher() bool {
	return u != nil && (u.Role == UserRoleTeacher || u.Role == UserRoleAdmin)
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Class is a school class taught by one teacher.
type Class struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TeacherID  string   `json:"teacherId"`
	ImageURL   string   `json:"imageUrl"`
	StudentIDs []string `json:"studentIds"`
}

// Enrollment links a student to a class.
type Enrollment struct {
	ClassID   string `json:"classId"`
	StudentID string `json:"studentId"`
}

// Assignment is a graded assignment uploaded by a teacher for one student.
type Assignment struct {
	ID              string `json:"id"`
	StudentID       string `json:"studentId"`
	TeacherID       string `json:"teacherId"`
	ClassID         string `json:"classId"`
	Title           string `json:"title"`
	FileName        string `json:"fileName"`
	FilePath        string `json:"filePath"`
	TeacherComments string `json:"teacherComments"`
	ExtractedText   string `json:"extractedText"`
	PracticeSetID   string `json:"practiceSetId"`
}

// PracticeSet holds the raw model output generated from an assignment.
// Questions is stored exactly as the model returned it; it is normalized on read.
type PracticeSet struct {
	ID              string `json:"id"`
	StudentID       string `json:"studentId"`
	ClassID         string `json:"classId"`
	SrcAssignmentID string `json:"srcAssignmentId"`
	Questions       string `json:"questions"`
	Notes           string `json:"notes"`
}

// Profile is a student's profile, including gamification state.
type Profile struct {
	StudentID     string `json:"studentId"`
	Name          string `json:"name"`
	PictureURL    string `json:"pictureUrl"`
	Bio           string `json:"bio"`
	GradeLevel    string `json:"gradeLevel"`
	GuardianName  string `json:"guardianName"`
	GuardianEmail string `json:"guardianEmail"`
	Points        int    `json:"points"`
	BadgeTier     int    `json:"badgeTier"`
}

// PortalConfig holds runtime parameters set via CLI flags.
type PortalConfig struct {
	BasePath      string        // URL prefix for sub-path deployments (e.g. "/school")
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	UploadDir     string        // Where uploaded assignment files are written
	LLMTimeout    time.Duration // Upper bound for one short-answer judgment
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type sessionCtxKey struct{}

// ContextWithSessionID stores the auth session token in context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, id)
}

// SessionIDFromContext retrieves the auth session token from context.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
