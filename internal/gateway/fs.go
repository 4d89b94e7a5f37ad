// Package gateway implements the capability-gated filesystem and command
// execution operations behind the HTTP surface. Every operation checks the
// process access level before touching the host; failures surface as
// apierr kinds, never panics.
package gateway

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/apierr"
	"github.com/trapdoor-ai/trapdoor/internal/pathresolve"
)

// Write modes accepted by FS.Write.
const (
	ModeWrite  = "write"
	ModeAppend = "append"
)

// FS exposes the five filesystem operations. Operations are stateless and
// single-shot; nothing serializes concurrent requests touching the same
// path, the filesystem is the only arbiter.
type FS struct {
	level access.Level
}

// NewFS builds a filesystem gateway enforcing the given access level.
func NewFS(level access.Level) *FS {
	return &FS{level: level}
}

// DirEntry is one item of a directory listing. Size is set for regular
// files only. Entries whose metadata cannot be read degrade to type
// "unknown" with Err set instead of failing the listing.
type DirEntry struct {
	Name string
	Type string // "file", "dir", or "unknown"
	Size *int64
	Err  string
}

// ListResult is either a single-file stat (IsDir false, Entries nil) or a
// directory listing sorted by name.
type ListResult struct {
	Path     string
	IsDir    bool
	Size     int64
	Modified time.Time
	Entries  []DirEntry
}

// List stats the path. Directories return their entries sorted by name;
// regular files return their own metadata instead.
func (g *FS) List(path string) (*ListResult, error) {
	if !g.level.Allows(access.CapRead) {
		return nil, apierr.New(apierr.KindForbidden, "Read access disabled")
	}

	target, err := pathresolve.Resolve(path)
	if err != nil {
		return nil, resolveError(path, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierr.New(apierr.KindNotFound, "Path not found: %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}

	if !info.IsDir() {
		return &ListResult{
			Path:     target,
			Size:     info.Size(),
			Modified: info.ModTime(),
		}, nil
	}

	dirents, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", target, err)
	}
	sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })

	entries := make([]DirEntry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, statEntry(d))
	}

	return &ListResult{Path: target, IsDir: true, Entries: entries}, nil
}

// statEntry builds a DirEntry, degrading to "unknown" when the entry's
// metadata is unreadable.
func statEntry(d fs.DirEntry) DirEntry {
	info, err := d.Info()
	if err != nil {
		return DirEntry{Name: d.Name(), Type: "unknown", Err: "permission denied"}
	}
	if info.IsDir() {
		return DirEntry{Name: d.Name(), Type: "dir"}
	}
	size := info.Size()
	return DirEntry{Name: d.Name(), Type: "file", Size: &size}
}

// ReadResult carries file content. Binary marks content that is not valid
// text; Content is empty and Size is the on-disk byte count in that case.
type ReadResult struct {
	Path    string
	Content string
	Size    int64
	Binary  bool
}

// Read returns the full content of a regular file. Directories are an
// invalid operation; undecodable content is reported as a binary marker,
// not a failure.
func (g *FS) Read(path string) (*ReadResult, error) {
	if !g.level.Allows(access.CapRead) {
		return nil, apierr.New(apierr.KindForbidden, "Read access disabled")
	}

	target, err := pathresolve.Resolve(path)
	if err != nil {
		return nil, resolveError(path, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierr.New(apierr.KindNotFound, "File not found: %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}
	if info.IsDir() {
		return nil, apierr.New(apierr.KindInvalidOperation, "Not a file: %s", path)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierr.New(apierr.KindNotFound, "File not found: %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	if !utf8.Valid(data) {
		return &ReadResult{Path: target, Size: int64(len(data)), Binary: true}, nil
	}
	return &ReadResult{Path: target, Content: string(data), Size: int64(len(data))}, nil
}

// WriteResult reports a completed write.
type WriteResult struct {
	Path    string
	Written int
	Mode    string
}

// Write stores content at path, creating missing parent directories. Mode
// "append" appends; anything else (including empty) truncates and
// replaces. No maximum payload size is enforced.
func (g *FS) Write(path, content, mode string) (*WriteResult, error) {
	if !g.level.Allows(access.CapWrite) {
		return nil, apierr.New(apierr.KindForbidden, "Write access disabled. Start with --solid or --full")
	}

	target, err := pathresolve.Resolve(path)
	if err != nil {
		return nil, resolveError(path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs for %s: %w", target, err)
	}

	if mode != ModeAppend {
		mode = ModeWrite
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if mode == ModeAppend {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}
	n, err := f.WriteString(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", target, err)
	}

	return &WriteResult{Path: target, Written: n, Mode: mode}, nil
}

// Mkdir creates the directory at path, including intermediate parents.
// Creating an already-existing directory succeeds.
func (g *FS) Mkdir(path string) (string, error) {
	if !g.level.Allows(access.CapWrite) {
		return "", apierr.New(apierr.KindForbidden, "Write access disabled. Start with --solid or --full")
	}

	target, err := pathresolve.Resolve(path)
	if err != nil {
		return "", resolveError(path, err)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", target, err)
	}
	return target, nil
}

// Remove deletes the file or directory at path. Directories are removed
// recursively. There is no trash: removal is irreversible.
func (g *FS) Remove(path string) (string, error) {
	if !g.level.Allows(access.CapDelete) {
		return "", apierr.New(apierr.KindForbidden, "Delete access disabled. Start with --full")
	}

	target, err := pathresolve.Resolve(path)
	if err != nil {
		return "", resolveError(path, err)
	}

	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apierr.New(apierr.KindNotFound, "Path not found: %s", path)
		}
		return "", fmt.Errorf("stat %s: %w", target, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return "", fmt.Errorf("remove %s: %w", target, err)
	}
	return target, nil
}

// resolveError classifies a path-resolution failure.
func resolveError(path string, err error) error {
	if os.IsNotExist(err) {
		return apierr.New(apierr.KindNotFound, "Path not found: %s", path)
	}
	return fmt.Errorf("resolve %s: %w", path, err)
}
