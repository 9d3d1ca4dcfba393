package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeLayoutOverflow, "no free cell for %q", "x")

	if got, want := err.Error(), `LAYOUT_OVERFLOW: no free cell for "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := UserMessage(err), `no free cell for "x"`; got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := Wrap(ErrCodeInvalidInput, cause, "decode %s snapshot", "yaml")

	if err.Cause != cause || errors.Unwrap(err) != cause {
		t.Fatalf("cause not preserved: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if err.Message != "decode yaml snapshot" {
		t.Errorf("Message = %q", err.Message)
	}
}

// Pipeline stages wrap coded errors with fmt.Errorf("stage: %w"); the code
// must survive any number of such layers.
func TestCodeThroughStageWrapping(t *testing.T) {
	inner := New(ErrCodeReorderRejected, "list %q has a fixed order", "10")
	staged := fmt.Errorf("checkpoint 3: %w", fmt.Errorf("build: %w", inner))

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct", inner, ErrCodeReorderRejected, true},
		{"through stages", staged, ErrCodeReorderRejected, true},
		{"other code", staged, ErrCodeLayoutOverflow, false},
		{"coded wrap of coded", Wrap(ErrCodeInternal, inner, "render"), ErrCodeInternal, true},
		{"plain", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}

	if got := GetCode(staged); got != ErrCodeReorderRejected {
		t.Errorf("GetCode(staged) = %q", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := UserMessage(staged); got != `list "10" has a fixed order` {
		t.Errorf("UserMessage(staged) = %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{New(ErrCodeMalformedNode, "bad kind"), false},
		{New(ErrCodeReorderRejected, "fixed order"), false},
		{fmt.Errorf("build: %w", New(ErrCodeMalformedNode, "nested")), false},
		{New(ErrCodeLayoutOverflow, "full"), true},
		{New(ErrCodeExportPrecondition, "unplaced"), true},
		{New(ErrCodeUnsupportedShapeAngle, "NaN"), true},
		{errors.New("boom"), true},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
