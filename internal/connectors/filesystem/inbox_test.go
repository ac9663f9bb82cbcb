package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew(t *testing.T) {
	inbox := New("/tmp/reports")

	assert.Equal(t, "/tmp/reports", inbox.Root())
	assert.Equal(t, DefaultSettle, inbox.settle)

	inbox = New("/tmp/reports", WithSettle(time.Second))
	assert.Equal(t, time.Second, inbox.settle)
}

func TestInbox_Scan(t *testing.T) {
	t.Run("finds visible PDFs recursively", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "b.pdf"), "b")
		writeFile(t, filepath.Join(dir, "2022", "a.PDF"), "a")
		writeFile(t, filepath.Join(dir, "notes.txt"), "n")
		writeFile(t, filepath.Join(dir, ".hidden.pdf"), "h")
		writeFile(t, filepath.Join(dir, ".trash", "old.pdf"), "o")

		paths, err := New(dir).Scan()

		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "2022", "a.PDF"),
			filepath.Join(dir, "b.pdf"),
		}, paths)
	})

	t.Run("empty directory", func(t *testing.T) {
		paths, err := New(t.TempDir()).Scan()

		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := New("/non/existent/path").Scan()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "report.pdf")
		writeFile(t, file, "x")

		_, err := New(file).Scan()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestInbox_Watch(t *testing.T) {
	t.Run("reports a new PDF once it settles", func(t *testing.T) {
		dir := t.TempDir()
		inbox := New(dir, WithSettle(50*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer inbox.Close()

		changes, err := inbox.Watch(ctx)
		require.NoError(t, err)

		target := filepath.Join(dir, "annual-2023.pdf")
		go func() {
			time.Sleep(50 * time.Millisecond)
			_ = os.WriteFile(target, []byte("part one"), 0644)
			_ = os.WriteFile(target, []byte("part one, part two"), 0644)
		}()

		select {
		case path := <-changes:
			assert.Equal(t, target, path)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for PDF")
		}

		// Several writes to one file are reported once.
		select {
		case path := <-changes:
			t.Fatalf("unexpected second report for %s", path)
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("watches new subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		inbox := New(dir, WithSettle(50*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer inbox.Close()

		changes, err := inbox.Watch(ctx)
		require.NoError(t, err)

		sub := filepath.Join(dir, "2024")
		target := filepath.Join(sub, "esg.pdf")
		go func() {
			time.Sleep(50 * time.Millisecond)
			_ = os.Mkdir(sub, 0755)
			time.Sleep(100 * time.Millisecond)
			_ = os.WriteFile(target, []byte("esg"), 0644)
		}()

		select {
		case path := <-changes:
			assert.Equal(t, target, path)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for PDF in new subdirectory")
		}
	})

	t.Run("ignores non-PDF files", func(t *testing.T) {
		dir := t.TempDir()
		inbox := New(dir, WithSettle(20*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer inbox.Close()

		changes, err := inbox.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, filepath.Join(dir, "notes.txt"), "n")

		select {
		case path := <-changes:
			t.Fatalf("unexpected report for %s", path)
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		inbox := New(t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := inbox.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
		assert.NoError(t, inbox.Close())
	})

	t.Run("returns error when inbox is closed", func(t *testing.T) {
		inbox := New(t.TempDir())
		require.NoError(t, inbox.Close())

		changes, err := inbox.Watch(context.Background())

		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
	})
}

func TestInbox_Close(t *testing.T) {
	inbox := New("/tmp/test")

	assert.NoError(t, inbox.Close())
	assert.NoError(t, inbox.Close())
	assert.Equal(t, "/tmp/test", inbox.Root())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		// Hidden files
		{".hidden", ".hidden", true},
		{"path/to/.hidden", "path/to/.hidden", true},
		{"/root/.config/file.pdf", "/root/.config/file.pdf", true},

		// Hidden directories in path
		{"dir/.git/config", "dir/.git/config", true},

		// Not hidden
		{"file.pdf", "file.pdf", false},
		{"path/to/file.pdf", "path/to/file.pdf", false},

		// Special cases - . and .. are not considered hidden
		{".", ".", false},
		{"..", "..", false},
		{"path/./file", "path/./file", false},
		{"path/../file", "path/../file", false},

		// Edge cases
		{"", "", false},
		{"/", "/", false},
		{"file.hidden", "file.hidden", false},

		// Multiple hidden directories
		{"/a/.b/.c/file", "/a/.b/.c/file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		dir      bool
		op       fsnotify.Op
		expected bool
	}{
		{name: "create pdf", file: "report.pdf", op: fsnotify.Create, expected: true},
		{name: "write pdf", file: "report.pdf", op: fsnotify.Write, expected: true},
		{name: "write and chmod pdf", file: "report.pdf", op: fsnotify.Write | fsnotify.Chmod, expected: true},
		{name: "chmod pdf", file: "report.pdf", op: fsnotify.Chmod},
		{name: "remove pdf", file: "gone.pdf", op: fsnotify.Remove},
		{name: "rename pdf", file: "gone.pdf", op: fsnotify.Rename},
		{name: "create text file", file: "notes.txt", op: fsnotify.Create},
		{name: "create hidden pdf", file: ".draft.pdf", op: fsnotify.Create},
		{name: "create directory named like a pdf", file: "folder.pdf", dir: true, op: fsnotify.Create},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0755))
			case tt.file != "gone.pdf":
				writeFile(t, path, "content")
			}

			got, ok := New(dir).handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})

			assert.Equal(t, tt.expected, ok)
			if tt.expected {
				assert.Equal(t, path, got)
			}
		})
	}
}

func TestSettled(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pending := map[string]time.Time{
		"b.pdf": now.Add(-3 * time.Second),
		"a.pdf": now.Add(-2 * time.Second),
		"c.pdf": now.Add(-500 * time.Millisecond),
	}

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, settled(pending, now, 2*time.Second))
	assert.Empty(t, settled(pending, now, time.Hour))
}
