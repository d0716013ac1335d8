package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSender_Send(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New(TypeJobLaunched, "metapipe", "job_ab12cd34_1700000000", "evt-1", map[string]any{
		"machine_type": "n1-standard-16",
	})

	sender := NewSender(5 * time.Second)
	if err := sender.Send(context.Background(), server.URL, event, "topsecret"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotHeaders.Get("X-Event-Type") != TypeJobLaunched {
		t.Errorf("X-Event-Type = %q, want %q", gotHeaders.Get("X-Event-Type"), TypeJobLaunched)
	}
	if gotHeaders.Get("X-Job-Id") != "job_ab12cd34_1700000000" {
		t.Errorf("X-Job-Id = %q", gotHeaders.Get("X-Job-Id"))
	}

	wantSig := Signature(gotBody, "topsecret")
	if !hmac.Equal([]byte(gotHeaders.Get("X-Signature-256")), []byte(wantSig)) {
		t.Error("signature header does not match body HMAC")
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if decoded.JobID != event.JobID || decoded.Type != event.Type {
		t.Errorf("decoded event mismatch: %+v", decoded)
	}
}

func TestSender_Send_NoSecret(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Signature-256") != "" {
			t.Error("expected no signature header without a secret")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewSender(5 * time.Second)
	event := New(TypeJobComplete, "metapipe", "job_ab12cd34_1700000000", "evt-2", nil)
	if err := sender.Send(context.Background(), server.URL, event, ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestSender_Send_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewSender(5 * time.Second)
	event := New(TypeJobFailed, "metapipe", "job_ab12cd34_1700000000", "evt-3", nil)
	err := sender.Send(context.Background(), server.URL, event, "")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	he, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if he.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", he.StatusCode)
	}
}

func TestHTTPError_Error(t *testing.T) {
	t.Parallel()
	err := &HTTPError{StatusCode: 503}
	if err.Error() != "HTTP 503" {
		t.Errorf("Error() = %q, want %q", err.Error(), "HTTP 503")
	}
}

func TestIsClientError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"400 Bad Request", &HTTPError{StatusCode: 400}, true},
		{"404 Not Found", &HTTPError{StatusCode: 404}, true},
		{"499 client error boundary", &HTTPError{StatusCode: 499}, true},
		{"500 Internal Server Error", &HTTPError{StatusCode: 500}, false},
		{"399 not a client error", &HTTPError{StatusCode: 399}, false},
		{"non-HTTP error", context.DeadlineExceeded, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsClientError(tt.err); got != tt.expected {
				t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"test":"data"}`)

	signature := Signature(payload, "secret-key")

	if len(signature) != len("sha256=")+64 {
		t.Errorf("unexpected signature length: %d", len(signature))
	}
	if signature[:7] != "sha256=" {
		t.Errorf("signature should start with 'sha256=', got %q", signature)
	}
	if signature != Signature(payload, "secret-key") {
		t.Error("signature should be deterministic")
	}
	if signature == Signature(payload, "different-key") {
		t.Error("different keys should produce different signatures")
	}
}
