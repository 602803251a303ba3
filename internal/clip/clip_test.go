package clip

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func failing(string) error { return errors.New("no xclip") }

func TestCopySystemClipboard(t *testing.T) {
	var got string
	c := &Copier{writeAll: func(s string) error { got = s; return nil }}
	res, err := c.Copy("job-1", "hello")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if res.Method != System || got != "hello" {
		t.Errorf("result = %+v, clipboard = %q", res, got)
	}
}

func TestCopyFallsBackToOSC52(t *testing.T) {
	var term bytes.Buffer
	c := &Copier{writeAll: failing, Terminal: &term}
	res, err := c.Copy("job-1", "hello")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if res.Method != OSC52 {
		t.Errorf("method = %q, want %q", res.Method, OSC52)
	}
	if !strings.HasPrefix(term.String(), "\x1b]52;") {
		t.Errorf("terminal got %q, want an OSC 52 sequence", term.String())
	}
}

func TestCopyFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	c := &Copier{Dir: dir, writeAll: failing, now: func() time.Time { return at }}
	res, err := c.Copy("job-1", "line one\nline two")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if res.Method != File || !strings.HasSuffix(res.Path, "job-1-20240203-040506.log") {
		t.Fatalf("result = %+v", res)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line one\nline two" {
		t.Errorf("file = %q", data)
	}
	if !strings.Contains(res.Message(2), res.Path) {
		t.Errorf("message = %q, want path", res.Message(2))
	}
}

func TestCopyAllFallbacksFail(t *testing.T) {
	c := &Copier{writeAll: failing}
	if _, err := c.Copy("job-1", "x"); err == nil {
		t.Error("expected error with no clipboard, terminal or directory")
	}
	if _, err := c.Copy("job-1", ""); err == nil {
		t.Error("expected error for empty text")
	}
}
