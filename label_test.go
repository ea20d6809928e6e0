package tefz

import "testing"

func TestLabelTableRegisterAndResolve(t *testing.T) {
	var labels LabelTable

	labels.Register(0, "ctx")
	labels.Register(255, "last")

	if got := labels.Label(0); got != "ctx" {
		t.Errorf("Expected label 'ctx', got %q", got)
	}

	if got := labels.Label(255); got != "last" {
		t.Errorf("Expected label 'last', got %q", got)
	}
}

func TestLabelTableUnregisteredResolvesEmpty(t *testing.T) {
	var labels LabelTable

	// Unregistered slots resolve to empty strings, never crash.
	if got := labels.Label(42); got != "" {
		t.Errorf("Expected empty string for unregistered slot, got %q", got)
	}
}

func TestLabelTableOverwriteInPlace(t *testing.T) {
	var labels LabelTable

	labels.Register(7, "first")
	labels.Register(7, "second")

	if got := labels.Label(7); got != "second" {
		t.Errorf("Expected re-registration to overwrite, got %q", got)
	}
}
