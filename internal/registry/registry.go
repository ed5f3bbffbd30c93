// Package registry is the publish/query orchestrator of spec.md §4.G: it
// composes the identifier validator, archive reader, signature verifier,
// storage layer, index, and authorization resolver into the
// Recover -> Authorize -> Parse -> Validate -> PlanVersion -> PutBlob ->
// PutPointer -> Commit -> Receipt state machine, plus Fetch, Yank, and
// Deprecate.
package registry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"

	"go.uber.org/zap"

	"github.com/libreseed/registry/internal/archive"
	"github.com/libreseed/registry/internal/authz"
	"github.com/libreseed/registry/internal/identifier"
	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/semver"
	"github.com/libreseed/registry/internal/signature"
	"github.com/libreseed/registry/internal/storage"
)

// Errors surfaced directly by the orchestrator, mapped onto spec.md §7's
// taxonomy at the API layer.
var (
	ErrPayloadTooLarge   = errors.New("registry: payload exceeds configured body limit")
	ErrConflict          = errors.New("registry: confusable name collides with an existing record")
	ErrInvalidIdentifier = errors.New("registry: invalid namespace or package identifier")
	ErrUnknownPackageKey = errors.New("registry: no version for that package key")
)

// Config carries the orchestrator's own tunables: the archive descriptor
// kind it decodes, the storage Artifact.Kind tag it stamps on every
// blob/pointer, the body and descriptor size caps, and the global
// allow/deny address gates spec.md §4.F's last paragraph describes (deny
// wins, then the allow gate, per DESIGN.md's Open Question decision).
type Config struct {
	ArchiveKind        archive.Kind
	StorageKind        string
	BodyLimit          int64
	MaxDescriptorBytes int64
	Allow              map[signature.Address]bool
	Deny               map[signature.Address]bool
}

// Registry composes the index, storage layer, and authorization resolver
// by interface, matching pkg/daemon/package_manager.go's PackageManager
// composition shape.
type Registry struct {
	idx     *index.Index
	storage storage.Layer
	authz   *authz.Resolver
	log     *zap.Logger
	cfg     Config
}

// New builds a Registry. log may be nil, in which case logging is a no-op.
func New(idx *index.Index, layer storage.Layer, log *zap.Logger, cfg Config) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{idx: idx, storage: layer, authz: authz.New(idx), log: log, cfg: cfg}
}

// Receipt is the publish response spec.md §3 and §4.G step 8 describe.
type Receipt struct {
	Pointer    storage.Pointer `json:"pointer"`
	Definition Definition      `json:"definition"`
}

// Definition is the inline summary spec.md's Receipt carries alongside the
// full pointer document.
type Definition struct {
	Artifact  storage.Artifact    `json:"artifact"`
	Object    []storage.ObjectKey `json:"object"`
	Signature string              `json:"signature"`
}

// Signup recovers the signer of the fixed signature.SignupMessage and
// records it as a publisher (spec.md §4.C; §6 POST /api/publisher).
func (r *Registry) Signup(ctx context.Context, sig [65]byte) (*index.Publisher, error) {
	addr, err := signature.Recover(sig, signature.SignupMessage)
	if err != nil {
		return nil, err
	}
	pub, err := r.idx.CreatePublisher(ctx, [20]byte(addr))
	if err != nil {
		return nil, err
	}
	r.log.Debug("signup", zap.String("address", addr.String()))
	return pub, nil
}

// RegisterNamespace recovers the signer of name itself and registers name
// as a namespace owned by that publisher (spec.md §4.C; §6 POST
// /api/namespace/{ns}).
func (r *Registry) RegisterNamespace(ctx context.Context, sig [65]byte, name string) (*index.Namespace, error) {
	addr, err := signature.Recover(sig, []byte(name))
	if err != nil {
		return nil, err
	}

	publisher, err := r.idx.FindPublisherByAddress(ctx, [20]byte(addr))
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		return nil, index.ErrUnknownPublisher
	}

	skeleton := identifier.Skeleton(name)
	// Confusable collisions must surface as Conflict before the identifier
	// gate runs: a homoglyph name is mixed-script by construction and would
	// otherwise be rejected by Validate before its skeleton clash with an
	// existing namespace is ever checked (spec.md §8 scenario 3).
	existing, err := r.idx.FindNamespaceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		bySkeleton, err := r.idx.FindNamespaceBySkeleton(ctx, skeleton)
		if err != nil {
			return nil, err
		}
		if bySkeleton != nil {
			return nil, index.ErrNamespaceExists
		}
	}
	if !identifier.Validate(name) {
		return nil, ErrInvalidIdentifier
	}

	ns, err := r.idx.CreateNamespace(ctx, name, skeleton, publisher.ID)
	if err != nil {
		return nil, err
	}
	r.log.Debug("register_namespace", zap.String("namespace", name), zap.String("address", addr.String()))
	return ns, nil
}

// membershipMessage is the payload an owner signs to manage a namespace
// member: spec.md itself does not define this SPEC_FULL-added endpoint's
// signed payload, so this binds namespace and member together (the owner is
// the recovered signer) to avoid an owner's namespace-register signature
// being replayable here. See DESIGN.md's implementation decisions for
// authz + registry.
func membershipMessage(namespace string, member signature.Address) []byte {
	return []byte(namespace + ":" + member.String())
}

// AddNamespaceMember grants member publish membership in namespace,
// restricted to restrictionNames (resolved to package ids; an empty list
// is unrestricted). Only the namespace owner may call this.
func (r *Registry) AddNamespaceMember(ctx context.Context, sig [65]byte, namespace string, member signature.Address, restrictionNames []string) error {
	ns, owner, err := r.authorizeOwner(ctx, sig, namespace, member)
	if err != nil {
		return err
	}

	memberPublisher, err := r.idx.FindPublisherByAddress(ctx, [20]byte(member))
	if err != nil {
		return err
	}
	if memberPublisher == nil {
		return index.ErrUnknownPublisher
	}

	ids := make([]int64, 0, len(restrictionNames))
	for _, name := range restrictionNames {
		pkg, err := r.idx.FindPackageByName(ctx, ns.ID, name)
		if err != nil {
			return err
		}
		if pkg == nil {
			return index.ErrUnknownPackage
		}
		ids = append(ids, pkg.ID)
	}

	r.log.Debug("add_namespace_member",
		zap.String("namespace", namespace), zap.String("owner", owner.String()), zap.String("member", member.String()))
	return r.idx.UpsertNamespaceMember(ctx, ns.ID, memberPublisher.ID, ids)
}

// RemoveNamespaceMember revokes member's membership in namespace, signed
// and authorized the same way as AddNamespaceMember.
func (r *Registry) RemoveNamespaceMember(ctx context.Context, sig [65]byte, namespace string, member signature.Address) error {
	ns, owner, err := r.authorizeOwner(ctx, sig, namespace, member)
	if err != nil {
		return err
	}

	memberPublisher, err := r.idx.FindPublisherByAddress(ctx, [20]byte(member))
	if err != nil {
		return err
	}
	if memberPublisher == nil {
		return index.ErrUnknownPublisher
	}

	r.log.Debug("remove_namespace_member",
		zap.String("namespace", namespace), zap.String("owner", owner.String()), zap.String("member", member.String()))
	return r.idx.RemoveNamespaceMember(ctx, ns.ID, memberPublisher.ID)
}

func (r *Registry) authorizeOwner(ctx context.Context, sig [65]byte, namespace string, member signature.Address) (*index.Namespace, signature.Address, error) {
	addr, err := signature.Recover(sig, membershipMessage(namespace, member))
	if err != nil {
		return nil, signature.Address{}, err
	}
	ns, err := r.idx.FindNamespaceByName(ctx, namespace)
	if err != nil {
		return nil, signature.Address{}, err
	}
	if ns == nil {
		return nil, signature.Address{}, index.ErrUnknownNamespace
	}
	owner, err := r.idx.FindPublisherByAddress(ctx, [20]byte(addr))
	if err != nil {
		return nil, signature.Address{}, err
	}
	if owner == nil || owner.ID != ns.OwnerPublisherID {
		return nil, signature.Address{}, authz.ErrUnauthorized
	}
	return ns, addr, nil
}

// allowed applies spec.md §4.F's global gate: deny short-circuits
// Unauthorized; when an allow list is configured, only listed addresses
// pass.
func (r *Registry) allowed(addr signature.Address) error {
	if r.cfg.Deny[addr] {
		return authz.ErrUnauthorized
	}
	if len(r.cfg.Allow) > 0 && !r.cfg.Allow[addr] {
		return authz.ErrUnauthorized
	}
	return nil
}

// Publish drives the full publish state machine of spec.md §4.G: Recover,
// Authorize, Parse, Validate, PlanVersion, PutBlob, PutPointer, Commit,
// Receipt.
func (r *Registry) Publish(ctx context.Context, sig [65]byte, namespaceName string, body []byte) (*Receipt, error) {
	addr, err := signature.Recover(sig, body)
	if err != nil {
		return nil, err
	}
	if err := r.allowed(addr); err != nil {
		return nil, err
	}
	r.log.Debug("recover", zap.String("address", addr.String()))

	nsResult, err := r.authz.Authorize(ctx, addr, namespaceName, nil, nil)
	if err != nil {
		return nil, err
	}
	r.log.Debug("authorize", zap.String("namespace", namespaceName))

	if r.cfg.BodyLimit > 0 && int64(len(body)) > r.cfg.BodyLimit {
		return nil, ErrPayloadTooLarge
	}

	descriptor, err := archive.Parse(bytes.NewReader(body), r.cfg.ArchiveKind, r.cfg.MaxDescriptorBytes)
	if err != nil {
		return nil, err
	}
	r.log.Debug("parse", zap.String("name", descriptor.Name), zap.String("version", descriptor.Version))

	skeleton := identifier.Skeleton(descriptor.Name)

	number, err := semver.Parse(descriptor.Version)
	if err != nil {
		return nil, err
	}

	// Confusable collisions must surface as Conflict before the identifier
	// gate runs: a homoglyph name is mixed-script by construction and would
	// otherwise be rejected by Validate before its skeleton clash with an
	// existing package is ever checked (spec.md §8 scenario 4).
	existingByName, err := r.idx.FindPackageByName(ctx, nsResult.Namespace.ID, descriptor.Name)
	if err != nil {
		return nil, err
	}
	if existingByName == nil {
		bySkeleton, err := r.idx.FindPackageBySkeleton(ctx, nsResult.Namespace.ID, skeleton)
		if err != nil {
			return nil, err
		}
		if bySkeleton != nil {
			return nil, ErrConflict
		}
	}
	if !identifier.Validate(descriptor.Name) {
		return nil, ErrInvalidIdentifier
	}
	r.log.Debug("validate", zap.String("skeleton", skeleton))

	name := descriptor.Name
	authResult, err := r.authz.Authorize(ctx, addr, namespaceName, &name, &number)
	if err != nil {
		return nil, err
	}
	r.log.Debug("plan_version", zap.String("version", number.String()))

	pkg := authResult.Package
	if pkg == nil {
		pkg, err = r.idx.CreatePackage(ctx, nsResult.Namespace.ID, descriptor.Name, skeleton)
		if err != nil {
			return nil, err
		}
	}

	artifact := storage.Artifact{
		Namespace: namespaceName,
		Name:      descriptor.Name,
		Version:   number.String(),
		Kind:      r.cfg.StorageKind,
	}

	objectKeys, err := r.storage.PutBlob(ctx, artifact, body)
	if err != nil {
		return nil, err
	}
	r.log.Debug("put_blob", zap.Int("keys", len(objectKeys)))

	pointer := storage.NewPointer(artifact, objectKeys, sig, addr, descriptor.Raw)
	pointerKey, err := r.storage.PutPointer(ctx, pointer)
	if err != nil {
		return nil, err
	}
	r.log.Debug("put_pointer", zap.String("key", pointerKey.String()))

	objectKeyRaw, err := storage.EncodeObjectKeys(objectKeys)
	if err != nil {
		return nil, err
	}
	pointerKeyRaw, err := storage.EncodeObjectKeys([]storage.ObjectKey{pointerKey})
	if err != nil {
		return nil, err
	}
	checksum := sha256.Sum256(body)

	if _, err := r.idx.InsertVersion(ctx, authResult.Publisher.ID, pkg.ID, number, descriptor.Raw, objectKeyRaw, pointerKeyRaw, sig, checksum); err != nil {
		return nil, err
	}
	r.log.Info("commit",
		zap.String("namespace", namespaceName), zap.String("package", descriptor.Name), zap.String("version", number.String()))

	return &Receipt{
		Pointer: pointer,
		Definition: Definition{
			Artifact:  artifact,
			Object:    objectKeys,
			Signature: pointer.SignatureB,
		},
	}, nil
}

// Fetch resolves key to a version row and streams its archive bytes back,
// matching spec.md §4.G's Fetch flow. The caller is responsible for
// applying the version's stored content-type (spec.md §6's `registry.mime`).
func (r *Registry) Fetch(ctx context.Context, key PackageKey) ([]byte, *index.Version, error) {
	version, err := r.resolveVersion(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	keys, err := storage.DecodeObjectKeys(version.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	if len(keys) == 0 {
		return nil, nil, ErrUnknownPackageKey
	}

	data, err := r.storage.GetBlob(ctx, keys[0])
	if err != nil {
		return nil, nil, err
	}
	return data, version, nil
}

// GetVersion resolves (namespace, name, version) to its VersionRecord
// without touching the storage layer, matching spec.md §6's
// `GET /api/package/{ns}/{name}/{version}` row, which answers with the
// metadata row rather than the archive stream (that is the `GET
// /api/package?id={key}` row's job, served by Fetch).
func (r *Registry) GetVersion(ctx context.Context, namespace, name, versionStr string) (*index.Version, error) {
	return r.resolveVersion(ctx, PackageKey{Namespace: namespace, Name: name, Version: versionStr})
}

func (r *Registry) resolveVersion(ctx context.Context, key PackageKey) (*index.Version, error) {
	if key.IsContentID() {
		v, err := r.idx.FindVersionByContentID(ctx, key.CID)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrUnknownPackageKey
		}
		return v, nil
	}

	pkg, err := r.packageByNames(ctx, key.Namespace, key.Name)
	if err != nil {
		return nil, err
	}
	number, err := semver.Parse(key.Version)
	if err != nil {
		return nil, err
	}
	v, err := r.idx.FindVersionExact(ctx, pkg.ID, number)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrUnknownPackageKey
	}
	return v, nil
}

// Yank marks (namespace, name, version) withdrawn. Overwrite semantics:
// message == "" clears a prior yank (spec.md §9 Open Question (a)).
func (r *Registry) Yank(ctx context.Context, sig [65]byte, namespace, name, versionStr, message string) error {
	addr, err := signature.Recover(sig, []byte(message))
	if err != nil {
		return err
	}
	authResult, err := r.authz.Authorize(ctx, addr, namespace, &name, nil)
	if err != nil {
		return err
	}
	if authResult.Package == nil {
		return index.ErrUnknownPackage
	}

	number, err := semver.Parse(versionStr)
	if err != nil {
		return err
	}
	version, err := r.idx.FindVersionExact(ctx, authResult.Package.ID, number)
	if err != nil {
		return err
	}
	if version == nil {
		return index.ErrUnknownVersion
	}

	r.log.Info("yank", zap.String("namespace", namespace), zap.String("package", name), zap.String("version", versionStr))
	return r.idx.SetVersionYanked(ctx, version.ID, message)
}

// Deprecate marks the whole package discouraged; purely informational
// (spec.md §3, glossary "Deprecate"). Overwrite semantics, as Yank.
func (r *Registry) Deprecate(ctx context.Context, sig [65]byte, namespace, name, message string) error {
	addr, err := signature.Recover(sig, []byte(message))
	if err != nil {
		return err
	}
	authResult, err := r.authz.Authorize(ctx, addr, namespace, &name, nil)
	if err != nil {
		return err
	}
	if authResult.Package == nil {
		return index.ErrUnknownPackage
	}

	r.log.Info("deprecate", zap.String("namespace", namespace), zap.String("package", name))
	return r.idx.SetDeprecated(ctx, authResult.Package.ID, message)
}

// ListPackages paginates the packages registered within namespace
// (SPEC_FULL.md §12's recovered list endpoint).
func (r *Registry) ListPackages(ctx context.Context, namespace string, pager index.Pager, includeVersions index.VersionIncludes) (index.ResultSet[index.Package], error) {
	ns, err := r.idx.FindNamespaceByName(ctx, namespace)
	if err != nil {
		return index.ResultSet[index.Package]{}, err
	}
	if ns == nil {
		return index.ResultSet[index.Package]{}, index.ErrUnknownNamespace
	}
	return r.idx.ListPackages(ctx, ns.ID, pager, includeVersions)
}

// ListVersions paginates every version of (namespace, name).
func (r *Registry) ListVersions(ctx context.Context, namespace, name string, pager index.Pager) (index.ResultSet[index.Version], error) {
	pkg, err := r.packageByNames(ctx, namespace, name)
	if err != nil {
		return index.ResultSet[index.Version]{}, err
	}
	return r.idx.ListVersions(ctx, pkg.ID, pager)
}

// FindVersions runs the SemVer range planner (spec.md §4.E) against
// (namespace, name)'s versions.
func (r *Registry) FindVersions(ctx context.Context, namespace, name, rangeExpr string, includePrerelease bool, pager index.Pager) (index.ResultSet[index.Version], error) {
	pkg, err := r.packageByNames(ctx, namespace, name)
	if err != nil {
		return index.ResultSet[index.Version]{}, err
	}
	return r.idx.FindVersions(ctx, pkg.ID, rangeExpr, includePrerelease, pager)
}

func (r *Registry) packageByNames(ctx context.Context, namespace, name string) (*index.Package, error) {
	ns, err := r.idx.FindNamespaceByName(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		return nil, index.ErrUnknownNamespace
	}
	pkg, err := r.idx.FindPackageByName(ctx, ns.ID, name)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, index.ErrUnknownPackage
	}
	return pkg, nil
}
