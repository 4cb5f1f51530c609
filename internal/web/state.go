// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"net/http"
)

// cookieState adapts one request/response pair to gateway.ClientState.
// Reads see values written earlier in the same request, so a login handler
// that sets the token and immediately consumes the redirect slot behaves
// the same as it would against server-side storage.
type cookieState struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	written map[string]*string // nil entry means deleted
}

func newCookieState(w http.ResponseWriter, r *http.Request, secure bool) *cookieState {
	return &cookieState{
		w:       w,
		r:       r,
		secure:  secure,
		written: make(map[string]*string),
	}
}

func (c *cookieState) Get(key string) (string, bool) {
	if v, ok := c.written[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	cookie, err := c.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (c *cookieState) Set(key, value string) {
	c.written[key] = &value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *cookieState) Delete(key string) {
	c.written[key] = nil
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
