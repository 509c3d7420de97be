package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conti/internal/core"
)

func TestJSONResponseBuilder_Data(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusCreated).Header("X-Custom", "value").Data(map[string]string{"id": "a1"}).Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"data":{"id":"a1"}}` {
		t.Errorf("Body = %s", got)
	}
}

func TestJSONResponseBuilder_Page(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Page([]int{}, true, 2).Write(w)

	if got := strings.TrimSpace(w.Body.String()); got != `{"data":[],"hasMore":true,"currentPage":2}` {
		t.Errorf("Body = %s", got)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{"validation", core.Validation("amount", "amount must be positive"), 422, "validation_error", "amount must be positive"},
		{"not found", core.NotFound("account", "x"), 404, "not_found_error", `account "x" not found`},
		{"conflict", core.Conflict("category in use"), 409, "conflict_error", "category in use"},
		{"internal is opaque", core.Internal(errors.New("disk on fire")), 500, "internal_error", "internal error"},
		{"foreign error", errors.New("boom"), 500, "internal_error", "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(httptest.NewRequest(http.MethodGet, "/", nil), tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantKind || body.Message != tt.wantMessage {
				t.Errorf("body = %+v", body)
			}
			if strings.Contains(w.Body.String(), "disk on fire") {
				t.Error("internal detail leaked")
			}
		})
	}
}

func TestUnauthorizedError(t *testing.T) {
	w := httptest.NewRecorder()
	UnauthorizedError().Write(w)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"unauthorized"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
