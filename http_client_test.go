package main

import (
	"testing"
	"time"
)

func TestConfigureExternalHTTPClient(t *testing.T) {
	orig := externalHTTPClient.Timeout
	t.Cleanup(func() { externalHTTPClient.Timeout = orig })

	configureExternalHTTPClient(45)
	if externalHTTPClient.Timeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", externalHTTPClient.Timeout)
	}

	configureExternalHTTPClient(0)
	if externalHTTPClient.Timeout != 45*time.Second {
		t.Fatalf("expected zero to keep the current timeout, got %v", externalHTTPClient.Timeout)
	}

	configureExternalHTTPClient(-5)
	if externalHTTPClient.Timeout != 45*time.Second {
		t.Fatalf("expected negative to keep the current timeout, got %v", externalHTTPClient.Timeout)
	}
}
