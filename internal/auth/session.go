package auth

import "net/http"

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "session"

// SetSessionCookie establishes the request identity on the response: it
// stores the signed token in an HttpOnly cookie, replacing any prior one.
//
// HttpOnly keeps JavaScript away from the token (XSS can't steal it);
// SameSite=Lax stops the browser attaching it to cross-site POSTs.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie. Clearing when no session
// exists is a no-op for the browser, which makes logout idempotent.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
