package errors

import (
	"fmt"
	"testing"
)

func TestIsWarning(t *testing.T) {
	if !IsWarning(Wrapf(ErrOverflowWarning, "channel 3")) {
		t.Error("wrapped overflow warning not recognized")
	}
	if IsWarning(ErrChannelOutOfRange) {
		t.Error("out-of-range treated as warning")
	}
	if IsWarning(nil) {
		t.Error("nil treated as warning")
	}
}

func TestIsRetriable(t *testing.T) {
	if !IsRetriable(Wrapf(ErrDatabase, "record tick: connection lost")) {
		t.Error("database error not retriable")
	}
	if !IsRetriable(ErrBufferFull) {
		t.Error("buffer-full not retriable")
	}
	if IsRetriable(ErrInvalidConfig) {
		t.Error("validation error treated as retriable")
	}
}

func TestErrorToCode(t *testing.T) {
	tests := []struct {
		err  error
		code int32
	}{
		{Wrap(ErrChannelOutOfRange, "channel 9"), CodeOutOfRange},
		{ErrInvalidConfig, CodeInvalidRequest},
		{ErrInvalidChannelCount, CodeInvalidRequest},
		{ErrNotFound, CodeNotFound},
		{ErrNotInitialized, CodeNotReady},
		{ErrClosed, CodeNotReady},
		{fmt.Errorf("something else"), CodeInternal},
		{nil, CodeUnknown},
	}

	for _, tt := range tests {
		if got := ErrorToCode(tt.err); got != tt.code {
			t.Errorf("ErrorToCode(%v) = %d (%s), want %d (%s)",
				tt.err, got, CodeName(got), tt.code, CodeName(tt.code))
		}
	}
}

func TestCodeToError_RoundTrip(t *testing.T) {
	// The sentinel a client reconstructs from a wire code must map back to
	// the same code.
	for _, code := range []int32{CodeInvalidRequest, CodeOutOfRange, CodeNotFound, CodeNotReady} {
		if got := ErrorToCode(CodeToError(code)); got != code {
			t.Errorf("round trip of code %d (%s) yielded %d", code, CodeName(code), got)
		}
	}
}

func TestCodeName(t *testing.T) {
	if got := CodeName(CodeOutOfRange); got != "OutOfRange" {
		t.Errorf("CodeName(CodeOutOfRange) = %q", got)
	}
	if got := CodeName(99); got != "Code(99)" {
		t.Errorf("CodeName(99) = %q", got)
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.Err() != nil {
		t.Error("empty collector returned an error")
	}

	v.AddField("clock.tick_interval", "too long")
	v.AddMissing("channels")

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !Is(err, ErrInvalidConfig) {
		t.Errorf("first error not reachable via Is: %v", err)
	}
	if !v.HasErrors() {
		t.Error("HasErrors() = false")
	}
}
