package services_test

import (
	"errors"
	"testing"

	"cadence/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "musicbrainz", "search", "request failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected wrapped error to match ErrTransient")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped error to match the underlying error")
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "itunes", "search", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected nil marker to default to ErrTransient")
	}
}

func TestIsTransient(t *testing.T) {
	if !services.IsTransient(services.Wrap(services.ErrTimeout, "catalog", "search", "", nil)) {
		t.Fatal("timeout should classify as transient")
	}
	if services.IsTransient(services.Wrap(services.ErrValidation, "engine", "harmonize", "", nil)) {
		t.Fatal("validation errors should not classify as transient")
	}
}
