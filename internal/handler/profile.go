package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/smartstudy/internal/handler/views"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/store"
)

// canEditProfile reports whether user may change the profile of studentID.
func canEditProfile(user *model.User, studentID string) bool {
	if user == nil {
		return false
	}
	return user.Role == model.UserRoleAdmin || strings.EqualFold(user.ID, studentID)
}

func (h *Handler) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	student, ok := h.loadStudent(w, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}
	profile, err := h.store.GetProfile(student.ID)
	if err != nil {
		slog.Error("failed to get profile", "student_id", student.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	p := model.Profile{StudentID: student.ID, Name: student.DisplayName}
	if profile != nil {
		p = *profile
	}

	render(w, r, views.ProfilePage(h.page(r, ""), views.ProfileView{
		Profile:  p,
		Editable: canEditProfile(model.UserFromContext(r.Context()), student.ID),
		Message:  flashMessage(r),
	}))
}

func (h *Handler) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	student, ok := h.loadStudent(w, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}
	if !canEditProfile(user, student.ID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	field := func(name string) *string {
		vals, ok := r.PostForm[name]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := strings.TrimSpace(vals[0])
		return &v
	}
	if _, err := h.store.UpdateProfile(student.ID, store.ProfileUpdate{
		Name:          field("name"),
		PictureURL:    field("picture_url"),
		Bio:           field("bio"),
		GradeLevel:    field("grade_level"),
		GuardianName:  field("guardian_name"),
		GuardianEmail: field("guardian_email"),
	}); err != nil {
		slog.Error("failed to update profile", "student_id", student.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("updated profile", "student_id", student.ID, "by", user.ID)
	http.Redirect(w, r, h.path("/profile/"+student.ID+"?msg=saved"), http.StatusSeeOther)
}
