package tool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Read returns the content of path. When startLine or endLine is set only
// that 1-indexed inclusive range is returned, with line terminators kept.
// A nil bound means the start or end of the file.
func Read(path string, startLine, endLine *int) string {
	return payload(readFile(path, startLine, endLine))
}

func readFile(path string, startLine, endLine *int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", failf("Error: File not found: %s", path)
		}
		return "", failf("Error reading file: %v", err)
	}
	if startLine == nil && endLine == nil {
		return string(data), nil
	}
	return lineRange(string(data), startLine, endLine), nil
}

// lineRange slices text into lines that keep their "\n" and returns the
// selected window. Out-of-range bounds clamp like a slice would.
func lineRange(text string, startLine, endLine *int) string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	start, end := 0, len(lines)
	if startLine != nil && *startLine > 0 {
		start = *startLine - 1
	}
	if endLine != nil && *endLine > 0 {
		end = *endLine
	}
	start = min(start, len(lines))
	end = min(end, len(lines))
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "")
}

// Write creates or overwrites path, making parent directories as needed.
func Write(path, content string) string {
	return payload(writeFile(path, content))
}

func writeFile(path, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", failf("Error writing file: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", failf("Error writing file: %v", err)
	}
	return fmt.Sprintf("Successfully wrote to %s", path), nil
}

// Edit replaces target with replacement in path. The target must occur
// exactly once; an absent or ambiguous target leaves the file unchanged.
func Edit(path, target, replacement string) string {
	return payload(editFile(path, target, replacement))
}

func editFile(path, target, replacement string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", failf("Error: File not found: %s", path)
		}
		return "", failf("Error editing file: %v", err)
	}
	content := string(data)
	if target == "" {
		return "", failf("Error: Target content not found in %s", path)
	}
	switch n := strings.Count(content, target); {
	case n == 0:
		return "", failf("Error: Target content not found in %s", path)
	case n > 1:
		return "", failf("Error: Target content found %d times in %s; provide more surrounding context", n, path)
	}
	updated := strings.Replace(content, target, replacement, 1)
	info, err := os.Stat(path)
	mode := fs.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		return "", failf("Error editing file: %v", err)
	}
	return fmt.Sprintf("Successfully edited %s", path), nil
}
