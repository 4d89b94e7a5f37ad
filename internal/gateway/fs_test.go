package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/apierr"
)

func wantKind(t *testing.T, err error, kind apierr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apierr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, kind, err)
	}
}

func TestCapabilityGates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	limited := NewFS(access.Limited)
	solid := NewFS(access.Solid)

	if _, err := limited.Write(file, "y", ""); err == nil {
		t.Error("limited write should be forbidden")
	} else {
		wantKind(t, err, apierr.KindForbidden)
	}
	if _, err := limited.Mkdir(filepath.Join(dir, "d")); err == nil {
		t.Error("limited mkdir should be forbidden")
	}
	if _, err := solid.Remove(file); err == nil {
		t.Error("solid remove should be forbidden")
	} else {
		wantKind(t, err, apierr.KindForbidden)
	}

	// The denied operations must not have touched the filesystem.
	data, err := os.ReadFile(file)
	if err != nil || string(data) != "x" {
		t.Fatalf("file changed by denied operation: %q, %v", data, err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	g := NewFS(access.Full)
	path := filepath.Join(t.TempDir(), "nested", "dirs", "note.txt")
	content := "hello trapdoor"

	wrote, err := g.Write(path, content, "")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if wrote.Written != len(content) {
		t.Errorf("written = %d, want %d", wrote.Written, len(content))
	}
	if wrote.Mode != ModeWrite {
		t.Errorf("mode = %q, want %q", wrote.Mode, ModeWrite)
	}

	read, err := g.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if read.Content != content {
		t.Errorf("content = %q, want %q", read.Content, content)
	}
	if read.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", read.Size, len(content))
	}
	if read.Binary {
		t.Error("text content flagged binary")
	}
}

func TestWriteAppend(t *testing.T) {
	g := NewFS(access.Solid)
	path := filepath.Join(t.TempDir(), "log.txt")

	if _, err := g.Write(path, "A", ModeWrite); err != nil {
		t.Fatalf("write: %v", err)
	}
	appended, err := g.Write(path, "B", ModeAppend)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if appended.Mode != ModeAppend {
		t.Errorf("mode = %q, want %q", appended.Mode, ModeAppend)
	}

	read, err := g.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if read.Content != "AB" {
		t.Errorf("content = %q, want %q", read.Content, "AB")
	}

	// Plain write truncates.
	if _, err := g.Write(path, "C", ModeWrite); err != nil {
		t.Fatalf("truncating write: %v", err)
	}
	read, err = g.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if read.Content != "C" {
		t.Errorf("content after truncate = %q, want %q", read.Content, "C")
	}
}

func TestReadMissingAndDirectory(t *testing.T) {
	g := NewFS(access.Limited)
	dir := t.TempDir()

	_, err := g.Read(filepath.Join(dir, "missing.txt"))
	wantKind(t, err, apierr.KindNotFound)

	_, err = g.Read(dir)
	wantKind(t, err, apierr.KindInvalidOperation)
}

func TestReadBinaryMarker(t *testing.T) {
	g := NewFS(access.Limited)
	path := filepath.Join(t.TempDir(), "blob.bin")
	raw := []byte{0xff, 0xfe, 0x00, 0x81, 0x82}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	read, err := g.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !read.Binary {
		t.Fatal("expected binary marker")
	}
	if read.Size != int64(len(raw)) {
		t.Errorf("size = %d, want %d", read.Size, len(raw))
	}
	if read.Content != "" {
		t.Errorf("binary read leaked content: %q", read.Content)
	}
}

func TestListDirectorySortedWithSizes(t *testing.T) {
	g := NewFS(access.Limited)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "c"), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := g.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !result.IsDir {
		t.Fatal("expected directory listing")
	}
	if len(result.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(result.Entries))
	}

	names := []string{result.Entries[0].Name, result.Entries[1].Name, result.Entries[2].Name}
	if names[0] != "a.txt" || names[1] != "b.txt" || names[2] != "c" {
		t.Errorf("entries not sorted by name: %v", names)
	}

	if result.Entries[0].Type != "file" || result.Entries[0].Size == nil || *result.Entries[0].Size != 1 {
		t.Errorf("a.txt entry wrong: %+v", result.Entries[0])
	}
	if result.Entries[2].Type != "dir" || result.Entries[2].Size != nil {
		t.Errorf("dir entry wrong: %+v", result.Entries[2])
	}
}

func TestListSingleFile(t *testing.T) {
	g := NewFS(access.Limited)
	path := filepath.Join(t.TempDir(), "only.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := g.List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.IsDir {
		t.Fatal("file target reported as directory")
	}
	if result.Size != 3 {
		t.Errorf("size = %d, want 3", result.Size)
	}
	if result.Modified.IsZero() {
		t.Error("modified time not set")
	}
}

func TestListMissingPath(t *testing.T) {
	g := NewFS(access.Limited)
	_, err := g.List(filepath.Join(t.TempDir(), "nope"))
	wantKind(t, err, apierr.KindNotFound)
}

func TestMkdirIdempotent(t *testing.T) {
	g := NewFS(access.Solid)
	path := filepath.Join(t.TempDir(), "x", "y", "z")

	first, err := g.Mkdir(path)
	if err != nil {
		t.Fatalf("first mkdir: %v", err)
	}
	second, err := g.Mkdir(path)
	if err != nil {
		t.Fatalf("second mkdir: %v", err)
	}
	if first != second {
		t.Errorf("mkdir returned different paths: %q vs %q", first, second)
	}

	info, err := os.Stat(first)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestRemoveIsIrreversible(t *testing.T) {
	g := NewFS(access.Full)
	dir := t.TempDir()
	nested := filepath.Join(dir, "tree", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(dir, "tree")
	if _, err := g.Remove(target); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	_, err := g.List(target)
	wantKind(t, err, apierr.KindNotFound)
	_, err = g.Read(filepath.Join(target, "deep", "f.txt"))
	wantKind(t, err, apierr.KindNotFound)

	// Removing again is NotFound, not success.
	_, err = g.Remove(target)
	wantKind(t, err, apierr.KindNotFound)
}

func TestRemoveSingleFile(t *testing.T) {
	g := NewFS(access.Full)
	path := filepath.Join(t.TempDir(), "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
}
