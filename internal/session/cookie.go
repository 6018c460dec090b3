// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the session cookie sent to the browser.
const CookieName = "nd_session"

// Cookies writes and reads the session cookie.
type Cookies struct {
	Secure bool          // set behind TLS
	TTL    time.Duration // cookie lifetime; zero selects DefaultTTL
}

// Set sends the session id to the browser.
func (c Cookies) Set(w http.ResponseWriter, id string) {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// Clear expires the session cookie immediately.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ID returns the session id carried by the request, or "".
func (c Cookies) ID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
