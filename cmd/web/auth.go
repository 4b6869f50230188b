package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const (
	cookieName = "ammotrack_token"
	roleCookie = "ammotrack_role"
)

type ctxKey string

const tokenKey ctxKey = "token"

// requireAuth redirects to /login when the token cookie is missing. Expired
// tokens are caught when the API answers 401.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookieName)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey, c.Value)))
	})
}

func token(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

// isAdmin only decides which buttons to show; the API enforces roles.
func isAdmin(r *http.Request) bool {
	c, err := r.Cookie(roleCookie)
	return err == nil && c.Value == "admin"
}

func redirectDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func loginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(cookieName); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	renderTemplate(w, "login.html", map[string]any{"Next": r.URL.Query().Get("next")})
}

func loginSubmit(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		next := safeNext(r.FormValue("next"))
		if username == "" {
			renderTemplate(w, "login.html", map[string]any{"Error": "Username is required", "Next": next})
			return
		}

		data, status, err := api.post("/auth/login", "", map[string]string{
			"username": username,
			"password": r.FormValue("password"),
		})
		if err != nil {
			renderTemplate(w, "login.html", map[string]any{"Error": "Cannot reach API: " + err.Error(), "Next": next})
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "login.html", map[string]any{"Error": newAPIError(status, data).Message, "Username": username, "Next": next})
			return
		}

		var out struct {
			Token string `json:"token"`
			User  struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &out); err != nil || out.Token == "" {
			renderTemplate(w, "login.html", map[string]any{"Error": "Invalid login response", "Next": next})
			return
		}

		for name, value := range map[string]string{cookieName: out.Token, roleCookie: out.User.Role} {
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    value,
				Path:     "/",
				MaxAge:   24 * 3600,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}

func logout(w http.ResponseWriter, r *http.Request) {
	clearAuth(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func clearAuth(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: roleCookie, Value: "", Path: "/", MaxAge: -1})
}

// clearAuthAndRedirectToLogin clears the token cookie and redirects to login with next=current path.
// Call when the API returns 401 (expired or invalid token) so the user can sign in again.
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	clearAuth(w)
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// handleAPIFailure deals with an error from the API client. It reports whether
// the response was already written (a redirect to login on 401).
func handleAPIFailure(w http.ResponseWriter, r *http.Request, err error) bool {
	var ae *apiError
	if errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
		clearAuthAndRedirectToLogin(w, r)
		return true
	}
	return false
}
