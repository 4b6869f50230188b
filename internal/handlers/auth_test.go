package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/crucial707/ammotrack/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "username", "password_hash", "role"}

func TestAuthHandler_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "alice", string(hash), "admin"))

	secret := []byte("test-secret")
	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: secret}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "s3cret-pass"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200", rr.Code)
	}
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Token == "" || out.User.Username != "alice" || out.User.ID != "u-1" {
		t.Errorf("unexpected response: token=%q user=%+v", out.Token, out.User)
	}
	u, err := middleware.ParseToken(secret, out.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if u.ID != "u-1" || u.Role != "admin" {
		t.Errorf("token claims: got %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "alice", string(hash), "admin"))

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "guess"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Login status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}

	body, _ := json.Marshal(map[string]string{"username": "nobody", "password": "whatever1"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Login status: got %d, want 401", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "invalid credentials" {
		t.Errorf("error message: got %q", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}

	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Login status: got %d, want 400", rr.Code)
	}
}

func TestAuthHandler_Register_FirstUserIsAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), "admin").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "alice", "hash", "admin"))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "u-1", "alice", "register", "user", "u-1", "success", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), AuditRepo: repo.NewAuditRepo(db), Secret: []byte("test-secret")}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "s3cret-pass"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Register status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["role"] != "admin" {
		t.Errorf("role: got %v, want admin", out["role"])
	}
	if _, ok := out["password_hash"]; ok {
		t.Error("password hash leaked in response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_LaterUsersAreViewers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "bob", sqlmock.AnyArg(), "viewer").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-4", "bob", "hash", "viewer"))

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}

	body, _ := json.Marshal(map[string]string{"username": "bob", "password": "s3cret-pass"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("Register status: got %d, want 201", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}

	body, _ := json.Marshal(map[string]string{"username": "bob", "password": "short"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Register status: got %d, want 400", rr.Code)
	}
	fields, _ := decodeBody(t, rr)["fields"].(map[string]any)
	if fields["password"] != "min=8" {
		t.Errorf("fields: got %v", fields)
	}
}
