package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/ammotrack/internal/models"
)

// loggedIn points the CLI at srv with a saved token.
func loggedIn(t *testing.T, srv *httptest.Server) {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("tok-1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AMMOTRACK_API_URL", srv.URL)
	t.Setenv("AMMOTRACK_TOKEN_FILE", tokenFile)
}

func usersServer(t *testing.T, users []models.User) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": users, "limit": 200, "offset": 0, "total": len(users)})
	}))
}

func TestListUsers_TableOutput(t *testing.T) {
	srv := usersServer(t, []models.User{
		{ID: "u1", Username: "alice", Role: models.RoleAdmin},
		{ID: "u2", Username: "bob", Role: models.RoleViewer},
	})
	defer srv.Close()
	loggedIn(t, srv)

	cmd := listUsersCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "alice") || !strings.Contains(got, "bob") {
		t.Fatalf("expected usernames in output, got: %s", got)
	}
	if !strings.Contains(got, "2 of 2 users") {
		t.Errorf("expected total line, got: %s", got)
	}
}

func TestListUsers_JSONOutput(t *testing.T) {
	srv := usersServer(t, []models.User{{ID: "u1", Username: "alice", Role: models.RoleAdmin}})
	defer srv.Close()
	loggedIn(t, srv)

	cmd := listUsersCmd()
	_ = cmd.Flags().Set("json", "true")
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), `"username": "alice"`) {
		t.Fatalf("expected JSON output, got: %s", out.String())
	}
}

func TestListUsers_NotLoggedIn(t *testing.T) {
	t.Setenv("AMMOTRACK_TOKEN_FILE", filepath.Join(t.TempDir(), "missing"))

	cmd := listUsersCmd()
	err := cmd.RunE(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in error, got %v", err)
	}
}
