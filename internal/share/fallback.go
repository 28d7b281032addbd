package share

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ClipboardFallback copies the text to the terminal clipboard with an OSC 52
// escape sequence written to W.
type ClipboardFallback struct {
	W io.Writer
}

func (ClipboardFallback) Path() Path { return PathClipboard }

// Deliver writes the clipboard escape sequence.
func (c ClipboardFallback) Deliver(ctx context.Context, p Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.W == nil {
		return "", fmt.Errorf("clipboard: no terminal")
	}
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(p.Text)) + "\a"
	if _, err := io.WriteString(c.W, seq); err != nil {
		return "", fmt.Errorf("clipboard: %w", err)
	}
	return "", nil
}

// DefaultFileName is used when FileFallback.Name is empty.
const DefaultFileName = "retreat-share.txt"

// FileFallback saves the text as a file, the terminal's "download".
type FileFallback struct {
	Dir  string
	Name string
}

func (FileFallback) Path() Path { return PathFile }

// Deliver writes the file and returns its path.
func (f FileFallback) Deliver(ctx context.Context, p Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := f.Name
	if name == "" {
		name = DefaultFileName
	}
	path := filepath.Join(f.Dir, name)

	content := p.Text
	if p.Title != "" {
		content = p.Title + "\n\n" + content
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save share file: %w", err)
	}
	return path, nil
}
