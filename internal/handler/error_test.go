package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/analogous-app/analogous/internal/domain"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ESTORAGE, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ETIMEOUT, http.StatusRequestTimeout},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.EQUOTA, http.StatusTooManyRequests},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ErrorCodeToHTTPStatus(tt.code); got != tt.status {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.status)
		}
	}
}

func TestErrorResponseWritesJSONEnvelope(t *testing.T) {
	req := httptest.NewRequest("POST", "/analogies", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.QuotaExceeded("entitlement.reserve", 20))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var envelope JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if envelope.Error.Code != domain.EQUOTA {
		t.Errorf("code = %q, want %q", envelope.Error.Code, domain.EQUOTA)
	}
	if !strings.Contains(envelope.Error.Message, "Daily limit of 20") {
		t.Errorf("message = %q, want daily limit text", envelope.Error.Message)
	}
}

func TestErrorResponseSetsRetryAfter(t *testing.T) {
	req := httptest.NewRequest("POST", "/analogies", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.RateLimited("entitlement.reserve", 42))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Errorf("Retry-After = %q, want %q", got, "42")
	}
}

func TestErrorResponseHidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest("GET", "/analogies", nil)
	rec := httptest.NewRecorder()

	err := domain.Internal(nil, "analogyService.List", "query blew up: secret dsn")
	ErrorResponse(rec, req, discardLogger(), err)

	body := rec.Body.String()
	if strings.Contains(body, "analogyService") {
		t.Errorf("response exposes internal operation name: %s", body)
	}
	if strings.Contains(body, "secret dsn") {
		t.Errorf("response exposes internal error detail: %s", body)
	}
	if !strings.Contains(body, "internal error occurred") {
		t.Errorf("response should carry the generic message, got: %s", body)
	}
}

func TestUnauthorizedResponse(t *testing.T) {
	req := httptest.NewRequest("GET", "/me", nil)
	rec := httptest.NewRecorder()

	UnauthorizedResponse(rec, req, discardLogger())

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var envelope JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if envelope.Error.Code != domain.EUNAUTHORIZED {
		t.Errorf("code = %q, want %q", envelope.Error.Code, domain.EUNAUTHORIZED)
	}
}
