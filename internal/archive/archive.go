// Package archive extracts the package descriptor from a compressed source
// archive without materializing the whole decompressed stream twice.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
)

// Errors returned by Parse.
var (
	// ErrMalformedArchive is returned when the input is not a valid
	// gzip+tar stream.
	ErrMalformedArchive = errors.New("archive: malformed archive")
	// ErrNoDescriptor is returned when the tar stream never contains the
	// configured well-known descriptor entry.
	ErrNoDescriptor = errors.New("archive: no descriptor entry")
	// ErrDescriptorTooLarge is returned when the descriptor entry exceeds
	// the configured maximum size.
	ErrDescriptorTooLarge = errors.New("archive: descriptor entry too large")
)

// Descriptor is the metadata extracted from a published archive.
type Descriptor struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Raw     json.RawMessage `json:"-"`
}

// Kind identifies which well-known entry path a registry configuration
// expects. Exactly one kind is active per configured registry; spec.md
// §4.B states the kind is configuration, never inferred.
type Kind struct {
	// EntryPath is the tar entry name that carries the JSON descriptor,
	// e.g. "package/package.json" for the npm-style kind.
	EntryPath string
}

// NPMKind is the only descriptor kind this registry ships a name for; other
// kinds are constructed by callers that configure a different EntryPath.
var NPMKind = Kind{EntryPath: "package/package.json"}

// DefaultMaxDescriptorBytes bounds a single descriptor entry read, guarding
// against zip-bomb-style inflation inside an otherwise small archive.
const DefaultMaxDescriptorBytes = 8 << 20 // 8 MiB

// Parse scans r (a gzip-compressed tar stream) for kind.EntryPath and
// decodes it as JSON into a Descriptor. It never buffers the full
// decompressed archive: each tar entry is read in turn, and only the
// matching entry's bytes (up to maxDescriptorBytes) are retained.
func Parse(r io.Reader, kind Kind, maxDescriptorBytes int64) (Descriptor, error) {
	if maxDescriptorBytes <= 0 {
		maxDescriptorBytes = DefaultMaxDescriptorBytes
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return Descriptor{}, ErrMalformedArchive
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return Descriptor{}, ErrNoDescriptor
		}
		if err != nil {
			return Descriptor{}, ErrMalformedArchive
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Name != kind.EntryPath {
			continue
		}

		if hdr.Size > maxDescriptorBytes {
			return Descriptor{}, ErrDescriptorTooLarge
		}

		limited := io.LimitReader(tr, maxDescriptorBytes+1)
		raw, err := io.ReadAll(limited)
		if err != nil {
			return Descriptor{}, ErrMalformedArchive
		}
		if int64(len(raw)) > maxDescriptorBytes {
			return Descriptor{}, ErrDescriptorTooLarge
		}

		var d Descriptor
		if err := json.Unmarshal(raw, &d); err != nil {
			return Descriptor{}, ErrMalformedArchive
		}
		if d.Name == "" || d.Version == "" {
			return Descriptor{}, ErrMalformedArchive
		}
		d.Raw = json.RawMessage(raw)
		return d, nil
	}
}
