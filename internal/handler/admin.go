package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/smartstudy/internal/handler/views"
	appI18n "github.com/pavelanni/smartstudy/internal/i18n"
	"github.com/pavelanni/smartstudy/internal/model"
)

func validRole(role model.UserRole) bool {
	switch role {
	case model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin:
		return true
	}
	return false
}

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, views.AdminUsersPage(h.page(r, ""), users, adminMessage(r)))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	if !validRole(role) {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if displayName == "" {
		displayName = username
	}

	if _, err := h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
	}); err != nil {
		slog.Error("failed to create user", "error", err)
		http.Error(w, "failed to create user: "+err.Error(), http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, h.path("/admin/users?msg=user"), http.StatusSeeOther)
}

func (h *Handler) handleAdminClassesPage(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, views.AdminClassesPage(h.page(r, ""), classes, users, adminMessage(r)))
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	c := model.Class{
		ID:        strings.TrimSpace(r.FormValue("id")),
		Name:      strings.TrimSpace(r.FormValue("name")),
		ImageURL:  strings.TrimSpace(r.FormValue("image_url")),
		TeacherID: strings.TrimSpace(r.FormValue("teacher_id")),
	}
	if c.ID == "" || c.Name == "" {
		http.Error(w, "class id and name required", http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetClass(c.ID)
	if err != nil {
		slog.Error("failed to get class", "class_id", c.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		// Keep the roster when an admin edits a class.
		c.StudentIDs = existing.StudentIDs
	}
	if err := h.store.SaveClass(c); err != nil {
		slog.Error("failed to save class", "class_id", c.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("saved class", "class_id", c.ID, "teacher_id", c.TeacherID)
	http.Redirect(w, r, h.path("/admin/classes?msg=class"), http.StatusSeeOther)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	classID := strings.TrimSpace(r.FormValue("class_id"))
	studentID := strings.TrimSpace(r.FormValue("student_id"))
	if classID == "" || studentID == "" {
		http.Error(w, "class and student required", http.StatusBadRequest)
		return
	}

	class, err := h.store.GetClass(classID)
	if err != nil {
		slog.Error("failed to get class", "class_id", classID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	student, err := h.store.GetUserByID(studentID)
	if err != nil {
		slog.Error("failed to get user", "user_id", studentID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if class == nil || student == nil || student.Role != model.UserRoleStudent {
		http.Error(w, "unknown class or student", http.StatusBadRequest)
		return
	}

	if err := h.store.Enroll(class.ID, student.ID); err != nil {
		slog.Error("failed to enroll", "class_id", class.ID, "student_id", student.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("enrolled student", "class_id", class.ID, "student_id", student.ID)
	http.Redirect(w, r, h.path("/admin/classes?msg=enrolled"), http.StatusSeeOther)
}

func adminMessage(r *http.Request) string {
	var id string
	switch r.URL.Query().Get("msg") {
	case "user":
		id = "UserCreated"
	case "class":
		id = "ClassSaved"
	case "enrolled":
		id = "Enrolled"
	default:
		return ""
	}
	return appI18n.T(r.Context(), id)
}
