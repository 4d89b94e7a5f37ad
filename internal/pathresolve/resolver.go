// Package pathresolve turns untrusted caller-supplied path strings into
// absolute, symlink-free filesystem paths. It deliberately enforces no
// jail: the access tier decides what a caller may do, not where. Anything
// the operating-system user can reach is reachable once the capability
// check passes.
package pathresolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trapdoor-ai/trapdoor/internal/config"
)

// Resolve expands a leading ~ to the invoking user's home directory and
// canonicalizes the result: absolute, cleaned, symlinks resolved. Paths
// whose trailing components do not exist yet (e.g. a file about to be
// written) resolve against their longest existing ancestor.
func Resolve(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty path")
	}

	expanded := config.ExpandPath(raw)
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", raw, err)
	}

	return evalSymlinksLenient(filepath.Clean(abs))
}

// evalSymlinksLenient resolves symlinks in path, tolerating a non-existent
// suffix: the longest existing prefix is canonicalized and the remaining
// components are appended verbatim.
func evalSymlinksLenient(path string) (string, error) {
	var tail []string
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Walked up to the root without finding anything that
			// exists; the cleaned absolute path is as canonical as
			// it gets.
			return path, nil
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
