package primitives

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PathSeparator joins state ids into a resolvable path, e.g. "root/child/grandchild".
const PathSeparator = "/"

// idAlphabet is used for short opaque ids (state/port/transition/outcome/data-flow).
// Mixed case plus digits keeps collisions rare at small id-set sizes without
// paying for a full UUID.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewShortID returns an 8-character opaque id, retrying against existing
// to satisfy scoped-uniqueness (state_id scoped to parent, port_id scoped to
// state, etc). The caller supplies the collision set it cares about.
func NewShortID(existing map[string]struct{}) string {
	for {
		id := randomShortID(8)
		if _, collide := existing[id]; !collide {
			return id
		}
	}
}

func randomShortID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read on the standard reader does not fail in practice;
		// fall back to a degenerate but still-valid id rather than panic.
		for i := range buf {
			buf[i] = byte(i)
		}
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out)
}

// NewRunID returns a fresh identifier for one state activation ("run"),
// unique process-wide.
func NewRunID() string {
	return uuid.NewString()
}

// JoinPath joins path segments with PathSeparator, skipping empty segments.
func JoinPath(segments ...string) string {
	filtered := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	return strings.Join(filtered, PathSeparator)
}

// SplitPath splits a "/"-joined path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// ValidateName rejects names containing the path separator: state, port and
// outcome names must not contain "/".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrIllegalName)
	}
	if strings.Contains(name, PathSeparator) {
		return fmt.Errorf("%w: name %q must not contain %q", ErrIllegalName, name, PathSeparator)
	}
	return nil
}
