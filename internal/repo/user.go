package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, username, password_hash, role`

// ==========================
// Create User (password optional, stored as bcrypt hash)
// ==========================
func (r *UserRepo) Create(ctx context.Context, username, password, role string) (*models.User, error) {
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}

	user := &models.User{}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, username, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		newID(""), username, hash, role,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, classify(err, "create user "+username)
	}
	return user, nil
}

// ==========================
// Get By ID / Username
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, classify(err, "user "+arg)
	}
	return user, nil
}

// CheckPassword reports whether password matches the user's hash. Users
// without a password only match an empty password.
func CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return password == ""
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ==========================
// Update User (empty role keeps the current one)
// ==========================
func (r *UserRepo) Update(ctx context.Context, id, username, role string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET username = $1, role = COALESCE(NULLIF($2, ''), role)
		 WHERE id = $3
		 RETURNING `+userColumns,
		username, role, id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, classify(err, "update user "+id)
	}
	return user, nil
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "user "+id)
}

// ==========================
// List / Count Users
// ==========================
func (r *UserRepo) List(ctx context.Context, p Page) ([]models.User, error) {
	var w where
	lim, args := w.paginate(p)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
