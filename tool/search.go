package tool

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// recursive makes a pattern match at any depth below the root, the way a
// recursive glob does. Patterns that already start with "**" are kept.
func recursive(pattern string) string {
	pattern = filepath.ToSlash(strings.TrimPrefix(pattern, "./"))
	if strings.HasPrefix(pattern, "**") || strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return "**/" + pattern
}

// walkFiles calls fn for every regular file under root matching pattern.
// Paths are slash-separated and relative to root.
func walkFiles(root, pattern string, fn func(rel string) error) error {
	pat := recursive(pattern)
	if !doublestar.ValidatePattern(pat) {
		return fmt.Errorf("invalid pattern %q", pattern)
	}
	return doublestar.GlobWalk(os.DirFS(root), pat, func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		return fn(rel)
	})
}

// Glob lists files under rootDir matching pattern at any depth. Paths are
// relative to rootDir and sorted. An invalid pattern yields a single
// "Error: ..." entry.
func Glob(pattern, rootDir string) []string {
	matches, err := globFiles(pattern, rootDir)
	if err != nil {
		return []string{err.Error()}
	}
	return matches
}

func globFiles(pattern, rootDir string) ([]string, error) {
	if rootDir == "" {
		rootDir = "."
	}
	var matches []string
	err := walkFiles(rootDir, pattern, func(rel string) error {
		matches = append(matches, filepath.FromSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, failf("Error globbing files: %v", err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Grep applies query as a case-insensitive regular expression to every line
// of every file under rootDir matching pattern. Matches are reported as
// "file:line: text". Files that cannot be read or are not valid UTF-8 are
// skipped.
func Grep(query, pattern, rootDir string) string {
	return payload(grepFiles(query, pattern, rootDir))
}

func grepFiles(query, pattern, rootDir string) (string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if rootDir == "" {
		rootDir = "."
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return "", failf("Error: Invalid regex: %v", err)
	}

	var results []string
	err = walkFiles(rootDir, pattern, func(rel string) error {
		data, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(rel)))
		if err != nil || len(data) == 0 || !utf8.Valid(data) {
			return nil
		}
		for i, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
			if re.MatchString(line) {
				results = append(results, fmt.Sprintf("%s:%d: %s", filepath.FromSlash(rel), i+1, strings.TrimSpace(line)))
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return "", failf("Error searching files: %v", err)
	}
	if len(results) == 0 {
		return "No matches found.", nil
	}
	return strings.Join(results, "\n"), nil
}
