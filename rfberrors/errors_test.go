package rfberrors

import (
	"errors"
	"testing"
)

func TestErrorFormatsWithAndWithoutCause(t *testing.T) {
	cause := errors.New("connection reset")
	withCause := New("session.read", Transport, "read failed", cause)
	if withCause.Error() == "" || withCause.Unwrap() != cause {
		t.Fatalf("withCause = %+v", withCause)
	}

	noCause := New("listener.bind", Configuration, "port in use", nil)
	if noCause.Unwrap() != nil {
		t.Fatalf("expected nil Unwrap for no-cause error")
	}
}

func TestIsMatchesSameOpAndCode(t *testing.T) {
	a := New("capture.acquire", CaptureFatal, "adapter init failed", nil)
	b := New("capture.acquire", CaptureFatal, "different message", nil)
	c := New("capture.acquire", CaptureTransient, "adapter init failed", nil)

	if !errors.Is(a, b) {
		t.Fatalf("expected a.Is(b) to match on Op+Code")
	}
	if errors.Is(a, c) {
		t.Fatalf("expected a.Is(c) to differ on Code")
	}
}
