package main

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "ammotrack_flash"

// flash is a one-shot message shown on the next page, e.g. after a redirect.
type flash struct {
	Kind    string // success or error
	Message string
}

func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

// redirectWithFlash sets a flash and sends the browser to path.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, path, kind, msg string) {
	setFlash(w, kind, msg)
	http.Redirect(w, r, path, http.StatusFound)
}
