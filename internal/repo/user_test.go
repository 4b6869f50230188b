package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "username", "password_hash", "role"}

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(id, username, password_hash, role\)`).
		WithArgs(sqlmock.AnyArg(), "alice", "", "viewer").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "alice", "", "viewer"))

	repo := NewUserRepo(db)
	user, err := repo.Create(context.Background(), "alice", "", "viewer")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != "u-1" || user.Username != "alice" || user.Role != "viewer" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Create_DuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), "admin").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "alice", "s3cret", "admin")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Create: got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, role FROM users WHERE id = \$1`).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-2", "bob", "", "viewer"))

	repo := NewUserRepo(db)
	user, err := repo.GetByID(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("username: got %q", user.Username)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByUsername: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET username = \$1`).
		WithArgs("carol", "admin", "u-3").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-3", "carol", "", "admin"))

	repo := NewUserRepo(db)
	user, err := repo.Update(context.Background(), "u-3", "carol", "admin")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !user.IsAdmin() {
		t.Errorf("role: got %q, want admin", user.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	if err := repo.Delete(context.Background(), "u-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY username LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "", "admin").
			AddRow("u-2", "bob", "", "viewer"))

	repo := NewUserRepo(db)
	users, err := repo.List(context.Background(), Page{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len: got %d, want 2", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := &models.User{PasswordHash: string(hash)}
	if !CheckPassword(u, "correct horse") {
		t.Error("expected matching password to pass")
	}
	if CheckPassword(u, "battery staple") {
		t.Error("expected wrong password to fail")
	}

	nopw := &models.User{}
	if !CheckPassword(nopw, "") {
		t.Error("user without password should accept empty password")
	}
	if CheckPassword(nopw, "anything") {
		t.Error("user without password should reject a non-empty password")
	}
}
