package httputil

import (
	"net/http"
	"time"
)

const (
	// SessionCookieName holds the signed teacher session token.
	SessionCookieName = "classfeed_session"

	// StateCookieName holds the signed OAuth state for one login
	// attempt.
	StateCookieName = "naver_oauth_state"
)

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Secure bool // true wherever the app is served over HTTPS
}

// SetSessionCookie sets the HttpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionFromCookie extracts the session token from the cookie.
func GetSessionFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// SetStateCookie stores the signed OAuth state on the initiating
// browser for the duration of one login attempt. SameSite must stay
// Lax: the provider's redirect back is a cross-site navigation and the
// cookie has to ride along with it.
func SetStateCookie(w http.ResponseWriter, value string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStateCookie invalidates the state cookie. Called on every
// callback outcome so a captured callback URL cannot be replayed.
func ClearStateCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetStateFromCookie extracts the stored OAuth state from the cookie.
func GetStateFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}
