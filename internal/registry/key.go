package registry

import (
	"errors"
	"strings"
)

// ErrInvalidPackageKey is returned when a wire-form package key is neither
// a well-formed {namespace}/{name}/{version} triple nor a non-empty
// content identifier.
var ErrInvalidPackageKey = errors.New("registry: malformed package key")

// PackageKey is the wire form spec.md §6 describes: either a
// (namespace, name, version) Pointer or a bare content identifier (Cid),
// disambiguated by structure.
type PackageKey struct {
	Namespace string
	Name      string
	Version   string
	CID       string
}

// IsContentID reports whether this key addresses by content id rather than
// by (namespace, name, version).
func (k PackageKey) IsContentID() bool { return k.CID != "" }

// ParsePackageKey disambiguates s by structure: a three-segment,
// slash-separated string with every segment non-empty is a Pointer; any
// other non-empty string is treated as a content identifier.
func ParsePackageKey(s string) (PackageKey, error) {
	if s == "" {
		return PackageKey{}, ErrInvalidPackageKey
	}
	parts := strings.Split(s, "/")
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" {
		return PackageKey{Namespace: parts[0], Name: parts[1], Version: parts[2]}, nil
	}
	if strings.Contains(s, "/") {
		return PackageKey{}, ErrInvalidPackageKey
	}
	return PackageKey{CID: s}, nil
}
