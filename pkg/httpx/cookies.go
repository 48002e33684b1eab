package httpx

import (
	"net/http"
	"strings"
	"time"
)

// CookiePolicy holds the attributes applied to cookies the gateway writes.
type CookiePolicy struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// ExpireCookie tells the browser to drop a cookie.
func (p CookiePolicy) ExpireCookie(w http.ResponseWriter, name string, httpOnly bool) {
	if w == nil || strings.TrimSpace(name) == "" {
		return
	}
	path := p.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   p.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// AddCookie appends a Set-Cookie line to h. A zero maxAge makes a session
// cookie.
func (p CookiePolicy) AddCookie(h http.Header, name, value string, maxAge time.Duration, httpOnly bool) {
	path := p.Path
	if path == "" {
		path = "/"
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   p.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
	if v := c.String(); v != "" {
		h.Add("Set-Cookie", v)
	}
}

// RelaySetCookies copies every Set-Cookie header from an upstream response.
// Set-Cookie must never be folded into one header, so each value is added
// separately.
func RelaySetCookies(dst http.Header, src http.Header) {
	for _, v := range src.Values("Set-Cookie") {
		dst.Add("Set-Cookie", v)
	}
}

// CookieValue returns the trimmed value of the named cookie.
func CookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}
