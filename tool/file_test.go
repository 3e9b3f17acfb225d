package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "note.txt")
	content := "first line\nsecond line\n\ttabbed third\n"

	out := Write(path, content)
	assert.Equal(t, "Successfully wrote to "+path, out)
	assert.Equal(t, content, Read(path, nil, nil))

	out = Write(path, "replaced")
	assert.Equal(t, "Successfully wrote to "+path, out)
	assert.Equal(t, "replaced", Read(path, nil, nil))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\n"), 0o644))

	tests := []struct {
		name       string
		start, end *int
		want       string
	}{
		{"whole file", nil, nil, "one\ntwo\nthree\nfour\n"},
		{"inclusive range", intPtr(2), intPtr(3), "two\nthree\n"},
		{"open end", intPtr(3), nil, "three\nfour\n"},
		{"open start", nil, intPtr(1), "one\n"},
		{"end past file", intPtr(4), intPtr(99), "four\n"},
		{"start past file", intPtr(10), nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Read(path, tt.start, tt.end))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		missing := filepath.Join(dir, "absent.txt")
		assert.Equal(t, "Error: File not found: "+missing, Read(missing, nil, nil))
	})

	t.Run("directory", func(t *testing.T) {
		assert.Contains(t, Read(dir, nil, nil), "Error reading file:")
	})
}

func TestEdit(t *testing.T) {
	t.Run("replaces unique target", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.go")
		require.NoError(t, os.WriteFile(path, []byte("package a\n\nvar x = 1\n"), 0o644))

		assert.Equal(t, "Successfully edited "+path, Edit(path, "x = 1", "x = 2"))
		assert.Equal(t, "package a\n\nvar x = 2\n", Read(path, nil, nil))
	})

	t.Run("failure is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "b.txt")
		original := "alpha beta\n"
		require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

		want := "Error: Target content not found in " + path
		assert.Equal(t, want, Edit(path, "gamma", "delta"))
		assert.Equal(t, want, Edit(path, "gamma", "delta"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, original, string(data))
	})

	t.Run("ambiguous target leaves file untouched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.txt")
		original := "foo\nfoo\n"
		require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

		out := Edit(path, "foo", "bar")
		assert.Equal(t, "Error: Target content found 2 times in "+path+"; provide more surrounding context", out)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, original, string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "none.txt")
		assert.Equal(t, "Error: File not found: "+path, Edit(path, "a", "b"))
	})
}
