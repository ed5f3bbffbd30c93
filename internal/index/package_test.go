package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustNamespace(t *testing.T, idx *Index, owner *Publisher, name string) *Namespace {
	t.Helper()
	ns, err := idx.CreateNamespace(context.Background(), name, name, owner.ID)
	require.NoError(t, err)
	return ns
}

func TestCreatePackageAndLookup(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")

	pkg, err := idx.CreatePackage(ctx, ns.ID, "widgets", "widgets")
	require.NoError(t, err)
	require.Equal(t, ns.ID, pkg.NamespaceID)

	byName, err := idx.FindPackageByName(ctx, ns.ID, "widgets")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, pkg.ID, byName.ID)
}

func TestCreatePackageDuplicateNameWithinNamespace(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")

	_, err := idx.CreatePackage(ctx, ns.ID, "widgets", "widgets")
	require.NoError(t, err)

	_, err = idx.CreatePackage(ctx, ns.ID, "widgets", "widgets-2")
	require.ErrorIs(t, err, ErrPackageExists)
}

func TestCreatePackageSameNameDifferentNamespaceAllowed(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns1 := mustNamespace(t, idx, owner, "acme")
	ns2 := mustNamespace(t, idx, owner, "beta")

	_, err := idx.CreatePackage(ctx, ns1.ID, "widgets", "widgets")
	require.NoError(t, err)
	_, err = idx.CreatePackage(ctx, ns2.ID, "widgets", "widgets")
	require.NoError(t, err)
}

func TestSetDeprecatedOverwriteAndClear(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")
	pkg, err := idx.CreatePackage(ctx, ns.ID, "widgets", "widgets")
	require.NoError(t, err)

	require.NoError(t, idx.SetDeprecated(ctx, pkg.ID, "use widgets2 instead"))
	got, err := idx.FindPackageByID(ctx, pkg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Deprecated)
	require.Equal(t, "use widgets2 instead", *got.Deprecated)

	require.NoError(t, idx.SetDeprecated(ctx, pkg.ID, ""))
	got, err = idx.FindPackageByID(ctx, pkg.ID)
	require.NoError(t, err)
	require.Nil(t, got.Deprecated)
}

func TestListPackagesPaginated(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")

	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := idx.CreatePackage(ctx, ns.ID, name, name)
		require.NoError(t, err)
	}

	page, err := idx.ListPackages(ctx, ns.ID, Pager{Offset: 0, Limit: 2, Direction: "ASC"}, VersionIncludesNone)
	require.NoError(t, err)
	require.Equal(t, 3, page.Count)
	require.Len(t, page.Records, 2)
	require.Equal(t, "alpha", page.Records[0].Name)
}

func TestListPackagesWithLatestVersion(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")

	withVersions, err := idx.CreatePackage(ctx, ns.ID, "widgets", "widgets")
	require.NoError(t, err)
	mustVersion(t, idx, withVersions, owner.ID, "1.0.0")
	mustVersion(t, idx, withVersions, owner.ID, "1.1.0")

	_, err = idx.CreatePackage(ctx, ns.ID, "gizmos", "gizmos")
	require.NoError(t, err)

	page, err := idx.ListPackages(ctx, ns.ID, DefaultPager(), VersionIncludesLatest)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	byName := map[string]Package{}
	for _, p := range page.Records {
		byName[p.Name] = p
	}

	require.NotNil(t, byName["widgets"].LatestVersion)
	require.Equal(t, "1.1.0", byName["widgets"].LatestVersion.Number.String())
	require.Nil(t, byName["gizmos"].LatestVersion)

	none, err := idx.ListPackages(ctx, ns.ID, DefaultPager(), VersionIncludesNone)
	require.NoError(t, err)
	for _, p := range none.Records {
		require.Nil(t, p.LatestVersion)
	}
}
