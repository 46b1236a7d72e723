package session

import (
	"net/http"
)

// Cookie builds the session cookie. Remembered sessions get a max-age; the rest
// end with the browser session.
func Cookie(s *Session, secure bool) *http.Cookie {
	c := &http.Cookie{
		Path:     "/",
		Name:     CookieName,
		Value:    s.ID,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Persist {
		c.MaxAge = int(PersistentTTL.Seconds())
	}
	return c
}

// ClearCookie expires the session cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Path:     "/",
		Name:     CookieName,
		Value:    "0",
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
