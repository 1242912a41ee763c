// Package notepad provides per-role note files for office agents: a Store
// abstraction with in-memory and directory backed implementations, and the
// notepad_write, notepad_read and notepad_list tools built on it.
package notepad

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a note does not exist in the namespace.
	ErrNotFound = errors.New("note not found")
	// ErrInvalidName is returned for names that reduce to nothing usable.
	ErrInvalidName = errors.New("invalid note name")
)

// Store persists notes grouped by namespace (one namespace per role).
// Implementations must be safe for concurrent use.
type Store interface {
	Save(namespace, name string, data []byte) error
	Get(namespace, name string) ([]byte, error)
	List(namespace string) ([]string, error)
	Delete(namespace, name string) error
}

// CleanName reduces name to its final path element so notes can never escape
// their namespace.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(name)

	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return base, nil
}

// Namespace normalizes a role into a namespace ("Sales" -> "sales").
func Namespace(role string) string {
	ns := strings.ToLower(strings.TrimSpace(role))
	ns = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, ns)

	if ns == "" {
		return "shared"
	}

	return ns
}
