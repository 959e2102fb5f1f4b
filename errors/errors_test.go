package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if got := err.Error(); got != "NOT_FOUND: not found" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("book", "b1")
	if err.Details["resource"] != "book" {
		t.Errorf("expected resource=book, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "b1" {
		t.Errorf("expected id=b1, got %v", err.Details["id"])
	}

	err = NotFound("book", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_MissingField(t *testing.T) {
	err := MissingField("book_id")
	if err.Code != ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "book_id") {
		t.Errorf("message should name the field, got %q", err.Message)
	}
}

func TestAppError_UnauthorizedDefaults(t *testing.T) {
	err := Unauthorized("")
	if err.Message != "authentication required" {
		t.Errorf("unexpected default message %q", err.Message)
	}
	if err.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", err.HTTPStatus)
	}
}

func TestAppError_CauseUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error string should include cause, got %q", err.Error())
	}
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("field", "path")
	if err.Details["field"] != "path" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", InvalidConfig("base_url", "must be absolute"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeInvalidConfig) {
		t.Error("HasCode should match")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}

func TestToResponse(t *testing.T) {
	data, err := json.Marshal(NotFound("book", "b1").ToResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["error"]["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %v", decoded["error"]["code"])
	}
	if decoded["error"]["message"] != "book not found" {
		t.Errorf("unexpected message %v", decoded["error"]["message"])
	}
}
