package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInUse             = errors.New("still referenced")
	ErrUnknownReference  = errors.New("referenced record does not exist")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// postgres error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage is used when the caller passes a zero Page.
var DefaultPage = Page{Limit: 50}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPage.Limit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// newID returns id unchanged when set, otherwise a fresh UUID.
func newID(id string) string {
	if strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return uuid.NewString()
}

// classify maps driver errors to the package sentinels, keeping the original for logs.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", what, ErrConflict)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", what, ErrUnknownReference, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// classifyDelete is classify for deletes, where a foreign key violation means
// other rows still point at the one being removed.
func classifyDelete(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation {
		return fmt.Errorf("%s: %w (%s)", what, ErrInUse, pqErr.Constraint)
	}
	return classify(err, what)
}

// requireAffected turns a zero-row update or delete into ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// where accumulates equality filters with positional args.
type where struct {
	clauses []string
	args    []any
}

// eq adds "col = $n" when val is non-empty.
func (w *where) eq(col, val string) {
	if val == "" {
		return
	}
	w.args = append(w.args, val)
	w.clauses = append(w.clauses, fmt.Sprintf("%s = $%d", col, len(w.args)))
}

func (w *where) add(clause string, val any) {
	w.args = append(w.args, val)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// paginate appends LIMIT/OFFSET placeholders and returns the full arg list.
func (w *where) paginate(p Page) (string, []any) {
	p = p.normalize()
	n := len(w.args)
	args := append(append([]any{}, w.args...), p.Limit, p.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
