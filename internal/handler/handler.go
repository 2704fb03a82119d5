package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/smartstudy/internal/handler/views"
	appI18n "github.com/pavelanni/smartstudy/internal/i18n"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
	"github.com/pavelanni/smartstudy/internal/store"
	"github.com/pavelanni/smartstudy/internal/study"
)

const maxUploadSize = 32 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	study    *study.Service
	engine   *practice.Engine
	config   model.PortalConfig
	practice *practiceSessions
}

// New creates a new Handler.
func New(s *store.Store, svc *study.Service, engine *practice.Engine, cfg model.PortalConfig) (*Handler, error) {
	if cfg.UploadDir != "" {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Handler{
		store:    s,
		study:    svc,
		engine:   engine,
		config:   cfg,
		practice: newPracticeSessions(),
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/logout", h.handleLogout)
		r.Get("/", h.handleIndex)
		r.Get("/classes", h.handleClasses)
		r.Get("/class/{classID}", h.handleClass)

		r.Route("/class/{classID}/student/{studentID}", func(r chi.Router) {
			r.Use(requireStudentAccess)
			r.Get("/", h.handleStudent)
			r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/assignments", h.handleUpload)

			r.Route("/assignment/{assignmentID}", func(r chi.Router) {
				r.Get("/", h.handleAssignment)
				r.Post("/select", h.handleSelect)
				r.Post("/response", h.handleResponse)
				r.Post("/check", h.handleCheck)
				r.Post("/judge", h.handleJudge)
				r.Post("/reset", h.handleReset)
				r.With(requireRole(model.UserRoleTeacher, model.UserRoleAdmin)).Post("/regenerate", h.handleRegenerate)
			})
		})

		r.With(requireStudentAccess).Get("/profile/{studentID}", h.handleProfilePage)
		r.With(requireStudentAccess).Post("/profile/{studentID}", h.handleProfileUpdate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/users", h.handleAdminUsersPage)
			r.Post("/users", h.handleCreateUser)
			r.Get("/classes", h.handleAdminClassesPage)
			r.Post("/classes", h.handleCreateClass)
			r.Post("/enroll", h.handleEnroll)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes an absolute portal path with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// page builds the common page data, with breadcrumbs from the request path.
func (h *Handler) page(r *http.Request, title string) views.Page {
	return views.Page{
		Title:  title,
		User:   model.UserFromContext(r.Context()),
		Crumbs: Breadcrumbs(strings.TrimPrefix(r.URL.Path, h.config.BasePath)),
	}
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path("/classes"), http.StatusSeeOther)
}

func (h *Handler) handleClasses(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var classes []model.Class
	var err error
	if user.Role == model.UserRoleAdmin {
		classes, err = h.store.ListClasses()
	} else {
		classes, err = h.store.ClassesForUser(user.ID)
	}
	if err != nil {
		slog.Error("failed to list classes", "user_id", user.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, views.ClassesPage(h.page(r, ""), classes))
}

func (h *Handler) handleClass(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	class, ok := h.loadClass(w, chi.URLParam(r, "classID"))
	if !ok {
		return
	}

	students, err := h.store.StudentsForClass(class.ID)
	if err != nil {
		slog.Error("failed to list students", "class_id", class.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !user.IsTeacher() {
		var self []model.User
		for _, s := range students {
			if strings.EqualFold(s.ID, user.ID) {
				self = append(self, s)
			}
		}
		students = self
	}
	render(w, r, views.ClassPage(h.page(r, class.Name), *class, students))
}

func (h *Handler) handleStudent(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	class, ok := h.loadClass(w, chi.URLParam(r, "classID"))
	if !ok {
		return
	}
	student, ok := h.loadStudent(w, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}

	assignments, err := h.store.ListAssignments(student.ID, class.ID)
	if err != nil {
		slog.Error("failed to list assignments", "student_id", student.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	profile, err := h.store.GetProfile(student.ID)
	if err != nil {
		slog.Error("failed to get profile", "student_id", student.ID, "error", err)
	}

	render(w, r, views.StudentPage(h.page(r, student.DisplayName), views.StudentView{
		Class:       *class,
		Student:     *student,
		Profile:     profile,
		Assignments: assignments,
		CanUpload:   user.IsTeacher(),
		Message:     flashMessage(r),
	}))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	class, ok := h.loadClass(w, chi.URLParam(r, "classID"))
	if !ok {
		return
	}
	student, ok := h.loadStudent(w, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	dest, err := h.saveUpload(student.ID, header.Filename, file)
	if err != nil {
		slog.Error("failed to save upload", "filename", header.Filename, "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}
	a, err := h.study.AddAssignment(r.Context(), study.NewAssignment{
		StudentID:       student.ID,
		TeacherID:       user.ID,
		ClassID:         class.ID,
		Title:           title,
		FilePath:        dest,
		TeacherComments: strings.TrimSpace(r.FormValue("teacher_comments")),
	})
	if err != nil {
		slog.Error("failed to add assignment", "student_id", student.ID, "error", err)
		http.Error(w, "failed to add assignment", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.path(assignmentPath(class.ID, student.ID, a.ID)), http.StatusSeeOther)
}

// saveUpload writes an uploaded file under the upload dir, in a folder per student.
func (h *Handler) saveUpload(studentID, filename string, src io.Reader) (string, error) {
	dir := filepath.Join(h.config.UploadDir, filepath.Base(studentID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return "", err
	}
	return dest, f.Close()
}

func (h *Handler) loadClass(w http.ResponseWriter, classID string) (*model.Class, bool) {
	class, err := h.store.GetClass(classID)
	if err != nil {
		slog.Error("failed to get class", "class_id", classID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if class == nil {
		http.Error(w, "class not found", http.StatusNotFound)
		return nil, false
	}
	return class, true
}

func (h *Handler) loadStudent(w http.ResponseWriter, studentID string) (*model.User, bool) {
	student, err := h.store.GetUserByID(studentID)
	if err != nil {
		slog.Error("failed to get user", "user_id", studentID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if student == nil {
		http.Error(w, "student not found", http.StatusNotFound)
		return nil, false
	}
	return student, true
}

func assignmentPath(classID, studentID, assignmentID string) string {
	return fmt.Sprintf("/class/%s/student/%s/assignment/%s", classID, studentID, assignmentID)
}

// flashMessage maps the msg query parameter to a translated notice.
func flashMessage(r *http.Request) string {
	var id string
	switch r.URL.Query().Get("msg") {
	case "saved":
		id = "ProfileSaved"
	case "regenerated":
		id = "PracticeRegenerated"
	default:
		return ""
	}
	return appI18n.T(r.Context(), id)
}
