// Package authz implements the authorization resolver of spec.md §4.F: the
// ordered algorithm deciding whether an address may publish, yank, or
// deprecate for a (namespace, package) pair.
package authz

import (
	"context"
	"errors"

	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/semver"
	"github.com/libreseed/registry/internal/signature"
)

// ErrUnauthorized is returned at any of the algorithm's membership or
// restriction-list checks (spec.md §4.F steps 4 and 6).
var ErrUnauthorized = errors.New("authz: address not authorized for this namespace/package")

// Result carries the records the orchestrator needs after a successful
// resolution: the caller's publisher row, the target namespace, and the
// target package if one was named and already exists.
type Result struct {
	Publisher *index.Publisher
	Namespace *index.Namespace
	Package   *index.Package // nil if packageName was nil, or named but not yet created
}

// Resolver runs the spec.md §4.F algorithm against an Index.
type Resolver struct {
	idx *index.Index
}

// New builds a Resolver over idx.
func New(idx *index.Index) *Resolver {
	return &Resolver{idx: idx}
}

// Authorize runs the 8-step algorithm of spec.md §4.F. packageName and
// version are both optional: pass nil for operations that don't yet know
// the target package (a bare namespace-level authorization check) or that
// never carry a version (yank/deprecate authorize by package alone).
//
// Step order matters:
//  1. publisher lookup
//  2. namespace lookup
//  3. owner fast-path (always authorized, unrestricted)
//  4. membership lookup (missing -> Unauthorized)
//  5. restricted = membership has a non-empty restriction list
//  6. package lookup + restriction check
//  7. exact-version duplicate check
//  8. version-ahead check
func (r *Resolver) Authorize(ctx context.Context, addr signature.Address, namespaceName string, packageName *string, version *semver.Version) (Result, error) {
	publisher, err := r.idx.FindPublisherByAddress(ctx, [20]byte(addr))
	if err != nil {
		return Result{}, err
	}
	if publisher == nil {
		return Result{}, index.ErrUnknownPublisher
	}

	namespace, err := r.idx.FindNamespaceByName(ctx, namespaceName)
	if err != nil {
		return Result{}, err
	}
	if namespace == nil {
		return Result{}, index.ErrUnknownNamespace
	}

	result := Result{Publisher: publisher, Namespace: namespace}

	var restricted bool
	var restrictions []int64
	if publisher.ID != namespace.OwnerPublisherID {
		member, err := r.idx.FindNamespaceMember(ctx, namespace.ID, publisher.ID)
		if err != nil {
			return Result{}, err
		}
		if member == nil {
			return Result{}, ErrUnauthorized
		}
		restrictions = member.Restrictions
		restricted = len(restrictions) > 0
	}

	if packageName == nil {
		return result, nil
	}

	pkg, err := r.idx.FindPackageByName(ctx, namespace.ID, *packageName)
	if err != nil {
		return Result{}, err
	}
	if restricted {
		if pkg == nil {
			return Result{}, ErrUnauthorized
		}
		if !containsID(restrictions, pkg.ID) {
			return Result{}, ErrUnauthorized
		}
	}
	result.Package = pkg

	if version == nil || pkg == nil {
		return result, nil
	}

	// An exact duplicate is checked before the general monotonicity check:
	// both ultimately report as 409 (spec.md §7), but republishing the
	// same (package, version) identifies as PackageExists rather than the
	// less specific VersionNotAhead, matching spec.md §8 scenario 2.
	existing, err := r.idx.FindVersionExact(ctx, pkg.ID, *version)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		return Result{}, index.ErrPackageExists
	}

	// A version's monotonicity is judged against every existing version of
	// the package, yanked or not, prerelease or not: yanking withdraws use,
	// it does not free the slot (spec.md §3's append-only invariant).
	highest, err := r.idx.FindHighestVersion(ctx, pkg.ID)
	if err != nil {
		return Result{}, err
	}
	if highest != nil && version.Compare(highest.Number) <= 0 {
		return Result{}, index.ErrVersionNotAhead
	}

	return result, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
