package access

import (
	"fmt"
	"strings"
)

// Level is the access tier selected once at process start. It is immutable
// for the lifetime of the server and must be passed explicitly to every
// component that enforces it.
type Level int

const (
	// Limited grants read-only filesystem access.
	Limited Level = iota
	// Solid grants read/write filesystem access, no delete, no exec.
	Solid
	// Full grants everything, including command execution.
	Full
)

// String returns the CLI-facing name of the level.
func (l Level) String() string {
	switch l {
	case Limited:
		return "limited"
	case Solid:
		return "solid"
	case Full:
		return "full"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Description returns the one-line summary shown in the startup banner
// and the health endpoint.
func (l Level) Description() string {
	switch l {
	case Limited:
		return "Read-only filesystem, no command execution"
	case Solid:
		return "Read/write filesystem, no command execution"
	case Full:
		return "Full access: filesystem + command execution"
	}
	return "unknown"
}

// ParseLevel converts a CLI level name into a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "limited":
		return Limited, nil
	case "solid":
		return Solid, nil
	case "full":
		return Full, nil
	}
	return Limited, fmt.Errorf("unknown access level %q (expected limited, solid, or full)", name)
}

// Capability is a single permission bit checked before the matching
// operation runs.
type Capability int

const (
	CapRead Capability = iota
	CapWrite
	CapDelete
	CapExec
)

// String returns the capability name used in logs and the health endpoint.
func (c Capability) String() string {
	switch c {
	case CapRead:
		return "read"
	case CapWrite:
		return "write"
	case CapDelete:
		return "delete"
	case CapExec:
		return "exec"
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// Grants is the capability set a level enables. Grants are monotonic
// across levels: Limited ⊆ Solid ⊆ Full in every dimension.
type Grants struct {
	Read   bool
	Write  bool
	Delete bool
	Exec   bool
}

// Grants returns the capability set for the level.
func (l Level) Grants() Grants {
	switch l {
	case Limited:
		return Grants{Read: true}
	case Solid:
		return Grants{Read: true, Write: true}
	case Full:
		return Grants{Read: true, Write: true, Delete: true, Exec: true}
	}
	// Unreachable for levels produced by ParseLevel; deny everything for
	// an out-of-range value rather than guessing.
	return Grants{}
}

// Allows reports whether the level grants the capability.
func (l Level) Allows(c Capability) bool {
	g := l.Grants()
	switch c {
	case CapRead:
		return g.Read
	case CapWrite:
		return g.Write
	case CapDelete:
		return g.Delete
	case CapExec:
		return g.Exec
	}
	return false
}
