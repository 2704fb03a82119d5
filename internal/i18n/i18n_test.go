package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	require.NoError(t, Init("en"))
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "SmartStudy", T(ctx, "AppTitle"))
	assert.Equal(t, "Class List", T(ctx, "ClassList"))
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")
	assert.Equal(t, "Список классов", T(ctx, "ClassList"))
	assert.Equal(t, "Проверить", T(ctx, "CheckAnswer"))
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "1 point", Tp(ctx, "PointsCount", 1))
	assert.Equal(t, "5 points", Tp(ctx, "PointsCount", 5))

	ru := initLang(t, "ru")
	assert.Equal(t, "1 балл", Tp(ru, "PointsCount", 1))
	assert.Equal(t, "3 балла", Tp(ru, "PointsCount", 3))
	assert.Equal(t, "5 баллов", Tp(ru, "PointsCount", 5))
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "Badge tier 3", Td(ctx, "BadgeTierN", map[string]any{"Tier": 3}))
	assert.Equal(t, "Correct answer: Paris", Td(ctx, "CorrectAnswerIs", map[string]any{"Answer": "Paris"}))
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "NonExistentKey", T(ctx, "NonExistentKey"))
}

func TestInitBadTag(t *testing.T) {
	assert.Error(t, Init("not a tag!"))
}

func TestNegotiate(t *testing.T) {
	require.NoError(t, Init("en"))
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"exact", []string{"ru"}, "ru"},
		{"region", []string{"ru-RU"}, "ru"},
		{"header", []string{"de-DE,ru;q=0.8,en;q=0.5"}, "ru"},
		{"unsupported falls back", []string{"fr"}, "en"},
		{"none", nil, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.prefs...))
		})
	}
}

func TestMiddleware(t *testing.T) {
	require.NoError(t, Init("en"))
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Logout")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Выйти", got)

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "Log out", got)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "en", cookies[0].Value)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: langCookieName, Value: "ru"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Выйти", got)
}
