package input

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/coregrid/rfbshare/logging"
)

func TestLoggingSinkRecordsEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := LoggingSink{Logger: &logging.StandardLogger{Logger: log.New(&buf, "", 0)}}

	sink.KeyEvent(true, 65)
	sink.PointerEvent(1, 10, 20)

	out := buf.String()
	if !strings.Contains(out, "key=65") || !strings.Contains(out, "x=10") {
		t.Fatalf("LoggingSink output = %q", out)
	}
}

func TestNoOpSinkDoesNotPanic(t *testing.T) {
	var s Sink = NoOpSink{}
	s.KeyEvent(false, 1)
	s.PointerEvent(0, 0, 0)
}
