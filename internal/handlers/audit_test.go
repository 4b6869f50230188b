package handlers

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/repo"
)

var auditCols = []string{"id", "created_at", "user_id", "username", "action", "resource_type", "resource_id", "status", "details"}

func TestAuditHandler_ListAudit_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM audit_log WHERE resource_type = \$1 AND status = \$2 ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs("depot", "failure", 50, 0).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow("a1", time.Now(), "u-1", "alice", "delete", "depot", "DEPOT-A", "failure", "still referenced"))

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}
	req := httptest.NewRequest("GET", "/audit?resource_type=depot&status=failure", nil)
	rr := httptest.NewRecorder()
	h.ListAudit(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	items, _ := decodeBody(t, rr)["items"].([]any)
	if len(items) != 1 {
		t.Errorf("items: got %d, want 1", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditHandler_ExportAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM audit_log ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow("a1", at, "u-1", "alice", "create", "depot", "DEPOT-A", "success", ""))

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}
	req := httptest.NewRequest("GET", "/audit/export", nil)
	rr := httptest.NewRecorder()
	h.ExportAudit(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "audit-log-") {
		t.Errorf("Content-Disposition: got %q", cd)
	}
	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[0][0] != "timestamp" || records[1][0] != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected csv: %v", records)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
