package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintRawResponse(t *testing.T) {
	var buf bytes.Buffer
	printRawResponse(&buf, []byte("not json RAWMARKER"), false)
	if !strings.Contains(buf.String(), "RAWMARKER") {
		t.Fatalf("short response not printed: %q", buf.String())
	}

	long := strings.Repeat("x", rawResponsePreview) + "TAIL"
	buf.Reset()
	printRawResponse(&buf, []byte(long), false)
	if strings.Contains(buf.String(), "TAIL") {
		t.Error("preview should be truncated")
	}
	if !strings.Contains(buf.String(), "--verbose") {
		t.Error("preview should mention --verbose")
	}

	buf.Reset()
	printRawResponse(&buf, []byte(long), true)
	if !strings.Contains(buf.String(), "TAIL") {
		t.Error("verbose output should be complete")
	}

	buf.Reset()
	printRawResponse(&buf, nil, true)
	if buf.Len() != 0 {
		t.Errorf("empty response printed %q", buf.String())
	}
}
