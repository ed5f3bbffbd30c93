// Package storage implements the pluggable content/path-addressed blob
// layer spec.md §4.D describes: a small capability contract plus memory,
// file, IPFS, and S3 backends.
package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/libreseed/registry/internal/signature"
)

// Errors returned by Layer implementations.
var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrBadKeyKind = errors.New("storage: object key kind not supported by this backend")
)

// ObjectKeyKind distinguishes content-addressed from path-addressed keys
// without leaking backend-specific representations to callers (spec.md §9).
type ObjectKeyKind int

const (
	// KindNamed addresses by a deterministic path
	// "{kind}/{namespace}/{name}/{version}/archive".
	KindNamed ObjectKeyKind = iota
	// KindContent addresses by content hash (CID).
	KindContent
)

// ObjectKey is the tagged key spec.md §3 calls Content(cid) | Named(path).
type ObjectKey struct {
	Kind ObjectKeyKind `json:"kind"`
	CID  string        `json:"cid,omitempty"`
	Path string        `json:"path,omitempty"`
}

// String renders the key for logging/debugging.
func (k ObjectKey) String() string {
	if k.Kind == KindContent {
		return "cid:" + k.CID
	}
	return "path:" + k.Path
}

// NamedKey builds a path-addressed ObjectKey.
func NamedKey(path string) ObjectKey { return ObjectKey{Kind: KindNamed, Path: path} }

// ContentKey builds a content-addressed ObjectKey.
func ContentKey(cid string) ObjectKey { return ObjectKey{Kind: KindContent, CID: cid} }

// Artifact identifies what is being stored: a (namespace, package, version)
// triple plus the configured descriptor kind (spec.md glossary).
type Artifact struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Kind      string `json:"kind"`
}

// DeterministicPath is the path-addressed layout spec.md §4.D and §6
// mandate: "{kind}/{namespace}/{name}/{version}/{archive|meta.json}".
func (a Artifact) DeterministicPath(leaf string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", a.Kind, a.Namespace, a.Name, a.Version, leaf)
}

// Pointer is the JSON receipt persisted alongside every published blob
// (spec.md §3: "Pointer document").
type Pointer struct {
	Artifact   Artifact          `json:"artifact"`
	Object     []ObjectKey       `json:"object"`
	Signature  [65]byte          `json:"-"`
	SignatureB string            `json:"signature"`
	Address    signature.Address `json:"-"`
	AddressB   string            `json:"address"`
	Descriptor json.RawMessage   `json:"descriptor"`
}

// NewPointer builds the pointer document spec.md §3 describes, populating
// the hex/base64 mirror fields PutPointer serializes from the binary ones.
func NewPointer(artifact Artifact, object []ObjectKey, sig [65]byte, addr signature.Address, descriptor json.RawMessage) Pointer {
	return Pointer{
		Artifact:   artifact,
		Object:     object,
		Signature:  sig,
		SignatureB: base64.StdEncoding.EncodeToString(sig[:]),
		Address:    addr,
		AddressB:   addr.String(),
		Descriptor: descriptor,
	}
}

// EncodeObjectKeys serializes the object keys a PutBlob call returned into
// the flat string the index's object_key column stores.
func EncodeObjectKeys(keys []ObjectKey) (string, error) {
	raw, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeObjectKeys parses the object_key column back into the ObjectKey
// slice a backend's PutBlob returned at publish time.
func DecodeObjectKeys(raw string) ([]ObjectKey, error) {
	var keys []ObjectKey
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Layer is the storage capability contract every backend implements.
// Methods take a context because all of them are I/O suspension points
// (spec.md §5).
type Layer interface {
	// PutBlob persists data for artifact and returns the object key(s) the
	// backend assigned it. The contract allows more than one key; every
	// backend in this package returns exactly one (IPFS pins the blob and
	// returns its single CID key).
	PutBlob(ctx context.Context, artifact Artifact, data []byte) ([]ObjectKey, error)

	// GetBlob reads the bytes for key, failing ErrNotFound or
	// ErrBadKeyKind if the backend cannot resolve that key kind.
	GetBlob(ctx context.Context, key ObjectKey) ([]byte, error)

	// PutPointer serializes and persists the deterministic pointer
	// document for artifact, returning its own object key.
	PutPointer(ctx context.Context, p Pointer) (ObjectKey, error)

	// GetPointer reads back the pointer document for artifact, or nil if
	// none has been written.
	GetPointer(ctx context.Context, artifact Artifact) (*Pointer, error)

	// SupportsContentID reports whether this backend returns Content(cid)
	// object keys (true) or Named(path) keys (false).
	SupportsContentID() bool
}
