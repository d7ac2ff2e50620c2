package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrExternalTool, "extraction", "ocr", "tesseract invocation failed", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("wrapped error should carry the marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should carry the cause")
	}
	want := "external tool error: extraction: ocr: tesseract invocation failed: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "triage", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
}

func TestKindClassifiesSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrValidation, "structuring", "", "empty text", nil), "validation"},
		{Wrap(ErrTimeout, "structuring", "llm", "deadline", nil), "timeout"},
		{fmt.Errorf("plain: %w", errors.New("boom")), "transient"},
		{Wrap(ErrPersistence, "filing", "catalog", "insert", nil), "persistence"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
