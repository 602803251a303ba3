// Package clip copies text to the user's clipboard with terminal and file
// fallbacks.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method records how text was delivered.
type Method string

const (
	System Method = "clipboard"
	OSC52  Method = "osc52"
	File   Method = "file"
)

// Result describes a successful copy.
type Result struct {
	Method Method
	Path   string // set for File
}

// Copier tries the system clipboard, then an OSC 52 escape on Terminal, then
// a file in Dir.
type Copier struct {
	Dir string
	// Terminal receives the OSC 52 sequence. Nil skips that step.
	Terminal io.Writer
	// InTmux wraps the sequence for tmux passthrough.
	InTmux bool

	writeAll func(string) error
	now      func() time.Time
}

// New returns a copier writing fallback files to dir and OSC 52 sequences
// to the controlling terminal's stderr.
func New(dir string) *Copier {
	return &Copier{
		Dir:      dir,
		Terminal: os.Stderr,
		InTmux:   os.Getenv("TMUX") != "",
	}
}

// Copy delivers text. name becomes part of the fallback file name.
func (c *Copier) Copy(name, text string) (Result, error) {
	if text == "" {
		return Result{}, errors.New("nothing to copy")
	}

	writeAll := c.writeAll
	if writeAll == nil {
		writeAll = clipboard.WriteAll
	}
	sysErr := writeAll(text)
	if sysErr == nil {
		return Result{Method: System}, nil
	}

	if c.Terminal != nil {
		seq := osc52.New(text)
		if c.InTmux {
			seq = seq.Tmux()
		}
		if _, err := seq.WriteTo(c.Terminal); err == nil {
			return Result{Method: OSC52}, nil
		}
	}

	path, err := c.writeFile(name, text)
	if err != nil {
		return Result{}, fmt.Errorf("copy to clipboard: %w; save to file: %w", sysErr, err)
	}
	return Result{Method: File, Path: path}, nil
}

func (c *Copier) writeFile(name, text string) (string, error) {
	if c.Dir == "" {
		return "", errors.New("no export directory configured")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", err
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	path := filepath.Join(c.Dir, fmt.Sprintf("%s-%s.log", name, now().Format("20060102-150405")))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Message is the notification text for a copy result.
func (r Result) Message(entries int) string {
	switch r.Method {
	case File:
		return fmt.Sprintf("Clipboard unavailable; saved %d log entries to %s", entries, r.Path)
	default:
		return fmt.Sprintf("Copied %d log entries to clipboard", entries)
	}
}
