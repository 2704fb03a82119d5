package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/smartstudy/internal/handler/views"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
)

type practiceKey struct {
	session    string
	assignment string
}

// practiceState is one session's answer state for one assignment's question.
type practiceState struct {
	mu     sync.Mutex
	loaded bool
	raw    string
	pkg    *practice.TestPackage
}

// practiceSessions keeps answer state in memory only. It is lost on restart
// and dropped at logout.
type practiceSessions struct {
	mu     sync.Mutex
	states map[practiceKey]*practiceState
}

func newPracticeSessions() *practiceSessions {
	return &practiceSessions{states: make(map[practiceKey]*practiceState)}
}

func (p *practiceSessions) get(session, assignmentID string) *practiceState {
	key := practiceKey{session: session, assignment: strings.ToLower(assignmentID)}
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[key]
	if !ok {
		st = &practiceState{}
		p.states[key] = st
	}
	return st
}

func (p *practiceSessions) dropSession(session string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.states {
		if k.session == session {
			delete(p.states, k)
		}
	}
}

// retain keeps only the state of sessions for which live returns true and
// reports how many entries were dropped.
func (p *practiceSessions) retain(live func(session string) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	dropped := 0
	for k := range p.states {
		if !live(k.session) {
			delete(p.states, k)
			dropped++
		}
	}
	return dropped
}

func (p *practiceSessions) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

func (p *practiceSessions) dropAssignment(assignmentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.states {
		if strings.EqualFold(k.assignment, assignmentID) {
			delete(p.states, k)
		}
	}
}

// practiceRequest is a locked practice state plus what the views need.
// Callers must call done when finished.
type practiceRequest struct {
	user       *model.User
	assignment model.Assignment
	base       string
	state      *practiceState
}

func (pr *practiceRequest) done() { pr.state.mu.Unlock() }

func (pr *practiceRequest) question() *practice.Question {
	if pr.state.pkg == nil {
		return nil
	}
	return pr.state.pkg.Question
}

func (pr *practiceRequest) view(msg string) views.AssignmentView {
	v := views.AssignmentView{
		Assignment:    pr.assignment,
		ActionBase:    pr.base,
		Invalid:       pr.state.pkg == nil,
		CanRegenerate: pr.user.IsTeacher(),
		Message:       msg,
	}
	if pr.state.pkg != nil {
		v.Title = pr.state.pkg.Title
		v.Question = pr.state.pkg.Question
	}
	return v
}

// openPractice loads the assignment named in the URL and locks its practice
// state for the current session. The stored payload is normalized again
// whenever it has changed.
func (h *Handler) openPractice(w http.ResponseWriter, r *http.Request) (*practiceRequest, bool) {
	classID := chi.URLParam(r, "classID")
	studentID := chi.URLParam(r, "studentID")
	assignmentID := chi.URLParam(r, "assignmentID")

	a, err := h.store.GetAssignment(assignmentID)
	if err != nil {
		slog.Error("failed to get assignment", "assignment_id", assignmentID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if a == nil || !strings.EqualFold(a.StudentID, studentID) || !strings.EqualFold(a.ClassID, classID) {
		http.Error(w, "assignment not found", http.StatusNotFound)
		return nil, false
	}

	raw, err := h.practicePayload(*a)
	if err != nil {
		slog.Error("failed to get practice set", "assignment_id", a.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	st := h.practice.get(model.SessionIDFromContext(r.Context()), a.ID)
	st.mu.Lock()
	if !st.loaded || st.raw != raw {
		st.raw = raw
		st.pkg = practice.Normalize(raw)
		st.loaded = true
	}
	return &practiceRequest{
		user:       model.UserFromContext(r.Context()),
		assignment: *a,
		base:       assignmentPath(classID, studentID, a.ID),
		state:      st,
	}, true
}

func (h *Handler) practicePayload(a model.Assignment) (string, error) {
	ps, err := h.store.GetPracticeSetForAssignment(a.ID)
	if err != nil {
		return "", err
	}
	if ps == nil && a.PracticeSetID != "" {
		ps, err = h.store.GetPracticeSet(a.PracticeSetID)
		if err != nil {
			return "", err
		}
	}
	if ps == nil {
		return "", nil
	}
	return ps.Questions, nil
}

func (h *Handler) handleAssignment(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()
	render(w, r, views.AssignmentPage(h.page(r, pr.assignment.Title), pr.view(flashMessage(r))))
}

// respond renders the question card for htmx requests and otherwise
// redirects back to the assignment page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, pr *practiceRequest) {
	if isHTMX(r) {
		render(w, r, views.QuestionCard(pr.view("")))
		return
	}
	http.Redirect(w, r, h.path(pr.base), http.StatusSeeOther)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()
	pr.question().Select(r.FormValue("choice"))
	h.respond(w, r, pr)
}

func (h *Handler) handleResponse(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()
	if q := pr.question(); q != nil && r.FormValue("response") != q.Response {
		q.SetResponse(r.FormValue("response"))
	}
	h.respond(w, r, pr)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()

	q := pr.question()
	if q == nil {
		h.respond(w, r, pr)
		return
	}
	// A submitted answer keeps its text until reset; SetResponse ignores it.
	if q.IsShortAnswer() && r.ParseForm() == nil {
		if resp, sent := r.PostForm["response"]; sent && len(resp) > 0 {
			q.SetResponse(resp[0])
		}
	}

	pending := h.engine.BeginCheck(r.Context(), pr.user.ID, q)
	if pending && !isHTMX(r) {
		h.finishCheck(r.Context(), pr.user.ID, q)
	}
	h.respond(w, r, pr)
}

func (h *Handler) handleJudge(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()
	if q := pr.question(); q != nil {
		h.finishCheck(r.Context(), pr.user.ID, q)
	}
	h.respond(w, r, pr)
}

func (h *Handler) finishCheck(ctx context.Context, userID string, q *practice.Question) {
	if h.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.LLMTimeout)
		defer cancel()
	}
	h.engine.FinishCheck(ctx, userID, q)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.openPractice(w, r)
	if !ok {
		return
	}
	defer pr.done()
	pr.question().Reset()
	h.respond(w, r, pr)
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	a, err := h.store.GetAssignment(assignmentID)
	if err != nil {
		slog.Error("failed to get assignment", "assignment_id", assignmentID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil || !strings.EqualFold(a.StudentID, chi.URLParam(r, "studentID")) ||
		!strings.EqualFold(a.ClassID, chi.URLParam(r, "classID")) {
		http.Error(w, "assignment not found", http.StatusNotFound)
		return
	}

	if _, err := h.study.RegeneratePracticeSet(r.Context(), a.ID); err != nil {
		slog.Error("failed to regenerate practice set", "assignment_id", a.ID, "error", err)
		http.Error(w, "failed to regenerate practice set", http.StatusInternalServerError)
		return
	}
	h.practice.dropAssignment(a.ID)

	base := assignmentPath(chi.URLParam(r, "classID"), chi.URLParam(r, "studentID"), a.ID)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", h.path(base+"?msg=regenerated"))
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, h.path(base+"?msg=regenerated"), http.StatusSeeOther)
}

// PruneSessions deletes expired auth sessions and drops the practice state
// of every session that no longer exists.
func (h *Handler) PruneSessions() error {
	if err := h.store.CleanupExpiredSessions(); err != nil {
		return err
	}
	live, err := h.store.AuthSessionIDs()
	if err != nil {
		return err
	}
	if n := h.practice.retain(func(s string) bool { return live[s] }); n > 0 {
		slog.Info("dropped practice state of ended sessions", "entries", n)
	}
	return nil
}

// RunSessionPruner calls PruneSessions every interval until ctx is done.
func (h *Handler) RunSessionPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.PruneSessions(); err != nil {
				slog.Warn("failed to prune sessions", "error", err)
			}
		}
	}
}
