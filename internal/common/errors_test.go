package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorAppError(t *testing.T) {
	base := errors.New("cart not found")
	err := fmt.Errorf("recalculate: %w", NewAppError(CodeNotFound, "cart not found", http.StatusNotFound, base))
	if !IsAppError(err) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected AppError to unwrap to its cause")
	}

	rec := httptest.NewRecorder()
	WriteError(rec, err)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != CodeNotFound || body.Error.Message != "cart not found" {
		t.Fatalf("unexpected body %+v", body.Error)
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); got == "" || !json.Valid([]byte(got)) {
		t.Fatalf("expected JSON body, got %q", got)
	}
	var body struct {
		Error ErrorBody `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Message != "internal error" {
		t.Fatalf("expected generic message, got %q", body.Error.Message)
	}
}
