package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questline/huntapi/internal/database"
)

func TestHandleHealthSQLiteOnly(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	h := handleHealth(discardLogger(), db, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var checks map[string]struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&checks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if checks["sqlite"].Status != "ok" {
		t.Errorf("sqlite = %+v", checks["sqlite"])
	}
	if _, present := checks["redis"]; present {
		t.Error("redis check reported without a client")
	}
}

func TestHandleHealthSQLiteDown(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.Close()

	h := handleHealth(discardLogger(), db, nil)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
