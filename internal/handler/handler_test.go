package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/smartstudy/internal/gamify"
	appI18n "github.com/pavelanni/smartstudy/internal/i18n"
	"github.com/pavelanni/smartstudy/internal/llm"
	"github.com/pavelanni/smartstudy/internal/llm/prompts"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
	"github.com/pavelanni/smartstudy/internal/store"
	"github.com/pavelanni/smartstudy/internal/study"
)

const (
	mcPayload = `{"test":{"title":"Capitals","question":{"questionType":"multipleChoice","questionText":"Capital of France?","choices":["Berlin","Paris"],"correctAnswer":"Paris","explanation":"Paris it is."}}}`
	saPayload = `{"test":{"question":{"questionType":"shortAnswer","questionText":"What gas do plants absorb?","correctAnswer":"carbon dioxide"}}}`
)

func TestMain(m *testing.M) {
	if err := prompts.Load(prompts.Templates); err != nil {
		panic(err)
	}
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	t      *testing.T
	store  *store.Store
	h      *Handler
	judge  *llm.MockPrompter
	router http.Handler
	mcID   string
	saID   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.New(store.BackendJSON, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	for _, u := range []model.User{
		{ID: "u001", Username: "admin", Role: model.UserRoleAdmin},
		{ID: "u002", Username: "teacher", DisplayName: "Ms. Frizzle", Role: model.UserRoleTeacher},
		{ID: "u003", Username: "arnold", DisplayName: "Arnold", Role: model.UserRoleStudent},
		{ID: "u004", Username: "wanda", DisplayName: "Wanda", Role: model.UserRoleStudent},
	} {
		u.PasswordHash = string(hash)
		_, err := s.CreateUser(u)
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveClass(model.Class{ID: "sci", Name: "Science", TeacherID: "u002"}))
	require.NoError(t, s.Enroll("sci", "u003"))
	require.NoError(t, s.Enroll("sci", "u004"))
	require.NoError(t, s.SaveProfile(model.Profile{StudentID: "u003", Name: "Arnold"}))

	addWithSet := func(title, payload string) string {
		a, err := s.AddAssignment(model.Assignment{StudentID: "u003", TeacherID: "u002", ClassID: "sci", Title: title})
		require.NoError(t, err)
		ps, err := s.CreatePracticeSet("u003", "sci", a.ID, payload)
		require.NoError(t, err)
		a.PracticeSetID = ps.ID
		require.NoError(t, s.SaveAssignment(a))
		return a.ID
	}

	judge := llm.NewMockPrompter()
	svc := study.New(s, &fakeExtractor{}, llm.NewMockPrompter(), time.Second)
	engine := practice.NewEngine(practice.NewLLMJudge(judge), gamify.NewUpdater(s))
	h, err := New(s, svc, engine, model.PortalConfig{UploadDir: t.TempDir(), LLMTimeout: time.Second})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(h.BasePathMiddleware)
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)

	return &testEnv{
		t:      t,
		store:  s,
		h:      h,
		judge:  judge,
		router: r,
		mcID:   addWithSet("Capitals", mcPayload),
		saID:   addWithSet("Plants", saPayload),
	}
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractText(string) string { return "" }

func (e *testEnv) do(method, path string, form url.Values, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	e.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(username string) *http.Cookie {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {"secret"}}, nil, false)
	require.Equal(e.t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	e.t.Fatal("no session cookie")
	return nil
}

func (e *testEnv) points(studentID string) int {
	e.t.Helper()
	p, err := e.store.GetProfile(studentID)
	require.NoError(e.t, err)
	require.NotNil(e.t, p)
	return p.Points
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/classes", nil, nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(http.MethodPost, "/class/sci/student/u003/assignment/a001/check", url.Values{}, nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/login", url.Values{"username": {"arnold"}, "password": {"nope"}}, nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestStudentAccess(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")

	rec := env.do(http.MethodGet, "/classes", nil, cookie, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Science")

	rec = env.do(http.MethodGet, "/class/sci", nil, cookie, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Arnold")
	assert.NotContains(t, rec.Body.String(), "Wanda")

	rec = env.do(http.MethodGet, "/class/sci/student/u004", nil, cookie, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/class/sci/student/U003/assignment/"+env.mcID, nil, cookie, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Capital of France?")

	rec = env.do(http.MethodGet, "/admin/users", nil, cookie, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignmentOfOtherStudent(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("teacher")

	rec := env.do(http.MethodGet, "/class/sci/student/u004/assignment/"+env.mcID, nil, cookie, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPractice_MultipleChoice(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.mcID

	rec := env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Paris"}}, cookie, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `aria-pressed="true"`)

	rec = env.do(http.MethodPost, base+"/check", url.Values{}, cookie, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="correct"`)
	assert.Contains(t, rec.Body.String(), "Paris it is.")
	assert.Equal(t, 1, env.points("u003"))

	// Checking again is a no-op.
	env.do(http.MethodPost, base+"/check", url.Values{}, cookie, true)
	assert.Equal(t, 1, env.points("u003"))

	rec = env.do(http.MethodPost, base+"/reset", url.Values{}, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, base, rec.Header().Get("Location"))

	rec = env.do(http.MethodGet, base, nil, cookie, false)
	assert.NotContains(t, rec.Body.String(), "Paris it is.")
}

func TestPractice_StatePerSession(t *testing.T) {
	env := newTestEnv(t)
	first := env.login("arnold")
	second := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.mcID

	env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Berlin"}}, first, false)

	rec := env.do(http.MethodGet, base, nil, second, false)
	assert.NotContains(t, rec.Body.String(), `aria-pressed="true"`)

	rec = env.do(http.MethodGet, base, nil, first, false)
	assert.Contains(t, rec.Body.String(), `aria-pressed="true"`)
}

func TestPractice_ShortAnswerHTMX(t *testing.T) {
	env := newTestEnv(t)
	env.judge.AddReply(llm.MockReply{Text: "correct"})
	cookie := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.saID

	rec := env.do(http.MethodPost, base+"/check", url.Values{"response": {"CO2"}}, cookie, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/judge")
	assert.Contains(t, rec.Body.String(), "readonly")
	assert.Equal(t, 0, env.judge.CallCount())

	rec = env.do(http.MethodPost, base+"/judge", url.Values{}, cookie, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="correct"`)
	assert.Equal(t, 1, env.judge.CallCount())
	assert.Contains(t, env.judge.Prompts[0], "CO2")
	assert.Equal(t, 2, env.points("u003"))

	// Resubmitting the same text does not judge or award again.
	env.do(http.MethodPost, base+"/check", url.Values{"response": {"CO2"}}, cookie, true)
	assert.Equal(t, 1, env.judge.CallCount())
	assert.Equal(t, 2, env.points("u003"))
}

func TestPractice_ShortAnswerWithoutHTMX(t *testing.T) {
	env := newTestEnv(t)
	env.judge.AddReply(llm.MockReply{Text: "banana"})
	cookie := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.saID

	rec := env.do(http.MethodPost, base+"/check", url.Values{"response": {"oxygen"}}, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, env.judge.CallCount())

	rec = env.do(http.MethodGet, base, nil, cookie, false)
	assert.Contains(t, rec.Body.String(), `class="indeterminate"`)
	assert.Contains(t, rec.Body.String(), "carbon dioxide")
	assert.Equal(t, 0, env.points("u003"))
}

func TestPractice_InvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	ps, err := env.store.GetPracticeSetForAssignment(env.mcID)
	require.NoError(t, err)
	ps.Questions = "I'm sorry, I can't do that."
	require.NoError(t, env.store.SavePracticeSet(*ps))

	cookie := env.login("arnold")
	rec := env.do(http.MethodGet, "/class/sci/student/u003/assignment/"+env.mcID, nil, cookie, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), appI18n.T(context.Background(), "InvalidPractice"))
}

func TestPruneSessions(t *testing.T) {
	env := newTestEnv(t)
	kept := env.login("arnold")
	ended := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.mcID

	env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Paris"}}, kept, false)
	env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Berlin"}}, ended, false)
	require.Equal(t, 2, env.h.practice.len())

	require.NoError(t, env.store.DeleteAuthSession(ended.Value))
	require.NoError(t, env.h.PruneSessions())
	assert.Equal(t, 1, env.h.practice.len())

	rec := env.do(http.MethodGet, base, nil, kept, false)
	assert.Contains(t, rec.Body.String(), `aria-pressed="true"`)
}

func TestRequireAuth_DropsStateOfEndedSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.mcID

	env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Paris"}}, cookie, false)
	require.Equal(t, 1, env.h.practice.len())

	require.NoError(t, env.store.DeleteAuthSession(cookie.Value))
	rec := env.do(http.MethodGet, base, nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, env.h.practice.len())
}

func TestPractice_ReselectAfterCheckRefused(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")
	base := "/class/sci/student/u003/assignment/" + env.mcID

	for i := 0; i < 3; i++ {
		env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Paris"}}, cookie, true)
		env.do(http.MethodPost, base+"/check", url.Values{}, cookie, true)
	}
	assert.Equal(t, 1, env.points("u003"))

	rec := env.do(http.MethodGet, base, nil, cookie, false)
	assert.Contains(t, rec.Body.String(), `class="selected" disabled`)

	env.do(http.MethodPost, base+"/reset", url.Values{}, cookie, true)
	env.do(http.MethodPost, base+"/select", url.Values{"choice": {"Paris"}}, cookie, true)
	env.do(http.MethodPost, base+"/check", url.Values{}, cookie, true)
	assert.Equal(t, 2, env.points("u003"))
}

func TestRegenerate_WrongClass(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SaveClass(model.Class{ID: "art", Name: "Art", TeacherID: "u002"}))

	rec := env.do(http.MethodPost, "/class/art/student/u003/assignment/"+env.mcID+"/regenerate", url.Values{}, env.login("teacher"), false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ps, err := env.store.GetPracticeSetForAssignment(env.mcID)
	require.NoError(t, err)
	assert.Equal(t, mcPayload, ps.Questions)
}

func TestRegenerate(t *testing.T) {
	env := newTestEnv(t)
	base := "/class/sci/student/u003/assignment/" + env.mcID

	rec := env.do(http.MethodPost, base+"/regenerate", url.Values{}, env.login("arnold"), false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, base+"/regenerate", url.Values{}, env.login("teacher"), false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, base+"?msg=regenerated", rec.Header().Get("Location"))

	ps, err := env.store.GetPracticeSetForAssignment(env.mcID)
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.Equal(t, practice.EmptyQuestionsJSON, ps.Questions)
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("teacher")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Lab report"))
	require.NoError(t, mw.WriteField("teacher_comments", "Check units"))
	fw, err := mw.CreateFormFile("file", "report.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/class/sci/student/u003/assignments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/class/sci/student/u003/assignment/a"))

	list, err := env.store.ListAssignments("u003", "sci")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Lab report", list[2].Title)
	assert.Equal(t, "Check units", list[2].TeacherComments)
	assert.FileExists(t, list[2].FilePath)
}

func TestUpload_StudentForbidden(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/class/sci/student/u003/assignments", url.Values{}, env.login("arnold"), false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")

	rec := env.do(http.MethodPost, "/profile/u003", url.Values{"bio": {"Likes frogs"}, "grade_level": {"4"}}, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	p, err := env.store.GetProfile("u003")
	require.NoError(t, err)
	assert.Equal(t, "Likes frogs", p.Bio)
	assert.Equal(t, "4", p.GradeLevel)
	assert.Equal(t, "Arnold", p.Name)

	teacher := env.login("teacher")
	rec = env.do(http.MethodGet, "/profile/u003", nil, teacher, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Likes frogs")
	rec = env.do(http.MethodPost, "/profile/u003", url.Values{"bio": {"x"}}, teacher, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("admin")

	rec := env.do(http.MethodPost, "/admin/users", url.Values{
		"username": {"ralphie"}, "password": {"pw"}, "role": {"student"},
	}, cookie, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	u, err := env.store.GetUserByUsername("ralphie")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u005", u.ID)
	assert.Equal(t, "ralphie", u.DisplayName)

	rec = env.do(http.MethodPost, "/admin/users", url.Values{
		"username": {"x"}, "password": {"pw"}, "role": {"janitor"},
	}, cookie, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/admin/enroll", url.Values{"class_id": {"sci"}, "student_id": {u.ID}}, cookie, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	students, err := env.store.StudentsForClass("sci")
	require.NoError(t, err)
	assert.Len(t, students, 3)

	rec = env.do(http.MethodPost, "/admin/enroll", url.Values{"class_id": {"sci"}, "student_id": {"u002"}}, cookie, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("arnold")

	rec := env.do(http.MethodPost, "/logout", url.Values{}, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(http.MethodGet, "/classes", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
