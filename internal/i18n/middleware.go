package i18n

import (
	"net/http"
)

const langCookieName = "lang"

// Middleware picks a localizer per request. An explicit ?lang= parameter wins
// and is remembered in a cookie; otherwise the cookie, then Accept-Language,
// then defaultLang decide.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var prefs []string
			if q := r.URL.Query().Get("lang"); q != "" {
				prefs = append(prefs, q)
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    Negotiate(q, defaultLang),
					Path:     "/",
					MaxAge:   365 * 24 * 3600,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if c, err := r.Cookie(langCookieName); err == nil && c.Value != "" {
				prefs = append(prefs, c.Value)
			}
			if al := r.Header.Get("Accept-Language"); al != "" {
				prefs = append(prefs, al)
			}
			prefs = append(prefs, defaultLang)

			lang := Negotiate(prefs...)
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
