package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/powerman/structlog"
)

func TestLoggerPrintsStackAfterKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := structlog.New().SetOutput(&buf)

	l.Info("store failure", structlog.KeyStack, "stack-marker", "op", "middle-marker")

	out := buf.String()
	stack, middle := strings.Index(out, "stack-marker"), strings.Index(out, "middle-marker")
	if stack < 0 {
		t.Fatalf("stack not printed: %q", out)
	}
	if stack < middle {
		t.Errorf("stack printed before other keyvals: %q", out)
	}
}
