package gce

import (
	"testing"

	"metapipe/internal/gateway"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want gateway.InstanceStatus
	}{
		{"PROVISIONING", gateway.StatusProvisioning},
		{"STAGING", gateway.StatusStaging},
		{"RUNNING", gateway.StatusRunning},
		{"TERMINATED", gateway.StatusTerminated},
		{"STOPPED", gateway.StatusTerminated},
		{"STOPPING", gateway.StatusUnknown},
		{"REPAIRING", gateway.StatusUnknown},
		{"", gateway.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeStatus(tt.raw); got != tt.want {
				t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
