package services_test

import (
	"errors"
	"strings"
	"testing"

	"vecna/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "rulebook", "fetch", "download failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"rulebook", "fetch", "download failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRetryableClassification(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "rulebook", "extract", "No text extracted", nil)
	if services.Retryable(validationErr) {
		t.Fatal("validation failures should not be retryable")
	}
	if got := services.MarkerName(validationErr); got != "validation" {
		t.Fatalf("marker = %q, want validation", got)
	}

	transientErr := services.Wrap(services.ErrTransient, "generator", "request", "status 503", nil)
	if !services.Retryable(transientErr) {
		t.Fatal("transient failures should be retryable")
	}
	if services.Retryable(nil) {
		t.Fatal("nil error should not be retryable")
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "rulebook", "extract", "No text extracted", nil)
	if got := services.Details(err); got != "rulebook: extract: No text extracted" {
		t.Fatalf("message = %q", got)
	}
	if got := services.Details(errors.New("plain")); got != "plain" {
		t.Fatalf("message = %q", got)
	}
}
