package index

import (
	"encoding/json"
	"time"

	"github.com/libreseed/registry/internal/semver"
)

// Publisher mirrors workspace/database/src/value_objects.rs's
// PublisherRecord: an address authenticated purely by signature recovery,
// never a password.
type Publisher struct {
	ID        int64
	Address   [20]byte
	CreatedAt time.Time
}

// Namespace mirrors NamespaceRecord. OwnerPublisherID always has publish
// rights (spec.md §3's invariant); Members augment that.
type Namespace struct {
	ID               int64
	Name             string
	Skeleton         string
	OwnerPublisherID int64
	CreatedAt        time.Time
}

// NamespaceMember mirrors the namespace_publishers join row. An empty
// Restrictions slice means unrestricted publish within the namespace.
type NamespaceMember struct {
	NamespaceID   int64
	PublisherID   int64
	Restrictions  []int64 // package_id allow-list; empty = unrestricted
}

// CanPublish reports whether this membership authorizes publishing to
// packageID, mirroring NamespaceRecord.can_publish() in the original
// source: an empty Restrictions list is unrestricted.
func (m NamespaceMember) CanPublish(packageID int64) bool {
	if len(m.Restrictions) == 0 {
		return true
	}
	for _, id := range m.Restrictions {
		if id == packageID {
			return true
		}
	}
	return false
}

// Package mirrors PackageRecord. Name and Namespace binding are immutable
// after creation; Deprecated is the only mutable field.
type Package struct {
	ID          int64
	NamespaceID int64
	Name        string
	Skeleton    string
	Deprecated  *string
	CreatedAt   time.Time

	// LatestVersion is populated only when ListPackages is called with
	// VersionIncludesLatest (SPEC_FULL.md §12's `?versions=latest`
	// projection); nil otherwise, including when the package has no
	// qualifying (non-yanked, non-prerelease) version yet.
	LatestVersion *Version `json:",omitempty"`
}

// Version mirrors VersionRecord: the append-only row a publish creates.
// Yanked is the only mutable field after insertion.
type Version struct {
	ID          int64
	PublisherID int64
	PackageID   int64
	Number      semver.Version
	Descriptor  json.RawMessage
	ObjectKey   string
	PointerKey  string
	Signature   [65]byte
	Checksum    [32]byte
	Yanked      *string
	CreatedAt   time.Time
}
