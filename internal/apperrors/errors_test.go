package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("inputs", "expected exactly 2 files, got 3")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "expected exactly 2 files, got 3" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "inputs" {
		t.Errorf("expected field 'inputs', got %q", appErr.Field)
	}
}

func TestConfiguration(t *testing.T) {
	t.Parallel()
	err := Configuration("project", "GCP project is not configured")

	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected error to match ErrConfiguration")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("configuration errors must not classify as validation errors")
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound("job", "job_ab12cd34_1700000000")

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to match ErrNotFound")
	}
	if err.Error() != "job job_ab12cd34_1700000000 not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestProvisioning(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("quota exceeded")
	err := Provisioning("gce.createInstance", cause)

	if !errors.Is(err, ErrProvisioning) {
		t.Error("expected error to match ErrProvisioning")
	}
	if err.Error() != "gce.createInstance: quota exceeded" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "gce.createInstance" {
		t.Errorf("expected op 'gce.createInstance', got %q", appErr.Op)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestProvisioningTimeout(t *testing.T) {
	t.Parallel()
	err := ProvisioningTimeout("gce.createInstance", context.DeadlineExceeded)

	if !errors.Is(err, ErrProvisioningTimeout) {
		t.Error("expected error to match ErrProvisioningTimeout")
	}
	if errors.Is(err, ErrProvisioning) {
		t.Error("timeout must be distinguishable from a plain provisioning failure")
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", Validation("threads", "out of range"), http.StatusBadRequest},
		{"configuration", Configuration("bucket", "bucket unset"), http.StatusUnprocessableEntity},
		{"not found", NotFound("job", "j1"), http.StatusNotFound},
		{"conflict", Conflict("job", "j1", "exists"), http.StatusConflict},
		{"provisioning", Provisioning("op", fmt.Errorf("fail")), http.StatusBadGateway},
		{"provisioning timeout", ProvisioningTimeout("op", nil), http.StatusGatewayTimeout},
		{"cancellation", Cancellation("op", fmt.Errorf("fail")), http.StatusBadGateway},
		{"internal", Internal("op", fmt.Errorf("fail")), http.StatusInternalServerError},
		{"wrapped validation", fmt.Errorf("wrap: %w", Validation("f", "m")), http.StatusBadRequest},
		{"unknown error", fmt.Errorf("unknown"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := HTTPStatus(tt.err)
			if got != tt.expected {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestErrorsIsWithWrapping(t *testing.T) {
	t.Parallel()
	original := Cancellation("gce.deleteInstance", fmt.Errorf("permission denied"))
	wrapped := fmt.Errorf("service error: %w", original)
	doubleWrapped := fmt.Errorf("handler error: %w", wrapped)

	if !errors.Is(doubleWrapped, ErrCancellation) {
		t.Error("expected errors.Is to find ErrCancellation through multiple wraps")
	}
}
