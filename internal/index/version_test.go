package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libreseed/registry/internal/semver"
)

func mustVersion(t *testing.T, idx *Index, pkg *Package, publisherID int64, number string) *Version {
	t.Helper()
	v, err := semver.Parse(number)
	require.NoError(t, err)
	var sig [65]byte
	var checksum [32]byte
	rec, err := idx.InsertVersion(context.Background(), publisherID, pkg.ID, v, []byte(`{}`), "object-"+number, "pointer-"+number, sig, checksum)
	require.NoError(t, err)
	return rec
}

func setupPackage(t *testing.T) (*Index, *Package, int64) {
	t.Helper()
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	ns := mustNamespace(t, idx, owner, "acme")
	pkg, err := idx.CreatePackage(ctx, ns.ID, "widgets", "widgets")
	require.NoError(t, err)
	return idx, pkg, owner.ID
}

func TestInsertVersionAndDuplicate(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	mustVersion(t, idx, pkg, publisherID, "1.0.0")

	v, err := semver.Parse("1.0.0")
	require.NoError(t, err)
	var sig [65]byte
	var checksum [32]byte
	_, err = idx.InsertVersion(ctx, publisherID, pkg.ID, v, []byte(`{}`), "object", "pointer", sig, checksum)
	require.ErrorIs(t, err, ErrVersionExists)
}

func TestFindLatestVersionExcludesPrereleaseAndYanked(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	mustVersion(t, idx, pkg, publisherID, "1.0.0")
	v2 := mustVersion(t, idx, pkg, publisherID, "1.1.0")
	mustVersion(t, idx, pkg, publisherID, "2.0.0-rc.1")

	latest, err := idx.FindLatestVersion(ctx, pkg.ID, false)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "1.1.0", latest.Number.String())

	latestWithPre, err := idx.FindLatestVersion(ctx, pkg.ID, true)
	require.NoError(t, err)
	require.Equal(t, "2.0.0-rc.1", latestWithPre.Number.String())

	require.NoError(t, idx.SetVersionYanked(ctx, v2.ID, "broken build"))
	latest, err = idx.FindLatestVersion(ctx, pkg.ID, false)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", latest.Number.String())
}

func TestFindVersionsRangeQuery(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	for _, n := range []string{"1.0.0", "1.2.3", "1.9.0", "2.0.0", "2.5.0"} {
		mustVersion(t, idx, pkg, publisherID, n)
	}

	result, err := idx.FindVersions(ctx, pkg.ID, "^1.2.3", false, DefaultPager())
	require.NoError(t, err)
	var got []string
	for _, v := range result.Records {
		got = append(got, v.Number.String())
	}
	require.ElementsMatch(t, []string{"1.2.3", "1.9.0"}, got)
}

func TestFindVersionsBareMajorMatchesOnlyThatMajor(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	for _, n := range []string{"1.0.0", "1.2.3", "2.0.0"} {
		mustVersion(t, idx, pkg, publisherID, n)
	}

	// A bare major with no minor/patch narrows the planner to ColumnMajor.
	result, err := idx.FindVersions(ctx, pkg.ID, "1", false, DefaultPager())
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
}

func TestFindVersionsTildeRange(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	for _, n := range []string{"1.2.0", "1.2.9", "1.3.0"} {
		mustVersion(t, idx, pkg, publisherID, n)
	}

	result, err := idx.FindVersions(ctx, pkg.ID, "~1.2.0", false, DefaultPager())
	require.NoError(t, err)
	var got []string
	for _, v := range result.Records {
		got = append(got, v.Number.String())
	}
	require.ElementsMatch(t, []string{"1.2.0", "1.2.9"}, got)
}

func TestFindVersionsOrdersByPreAndBuildWhenIncludingPrerelease(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	// All three share (major, minor, patch) = (1, 0, 0); only pre differs.
	for _, n := range []string{"1.0.0-beta", "1.0.0-alpha", "1.0.0"} {
		mustVersion(t, idx, pkg, publisherID, n)
	}

	result, err := idx.FindVersions(ctx, pkg.ID, "=1.0.0-alpha =1.0.0-beta =1.0.0", true, DefaultPager())
	require.NoError(t, err)
	var got []string
	for _, v := range result.Records {
		got = append(got, v.Number.String())
	}
	// Ascending pager direction orders the pre column lexicographically;
	// "" (the release, no prerelease tag) sorts before any non-empty
	// prerelease string, so the deterministic order is release, alpha, beta.
	require.Equal(t, []string{"1.0.0", "1.0.0-alpha", "1.0.0-beta"}, got)
}

func TestListVersionsOrdersDeterministicallyAcrossPrerelease(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	for _, n := range []string{"1.0.0-beta", "1.0.0-alpha", "1.0.0"} {
		mustVersion(t, idx, pkg, publisherID, n)
	}

	result, err := idx.ListVersions(ctx, pkg.ID, DefaultPager())
	require.NoError(t, err)
	var got []string
	for _, v := range result.Records {
		got = append(got, v.Number.String())
	}
	require.Equal(t, []string{"1.0.0", "1.0.0-alpha", "1.0.0-beta"}, got)
}

func TestYankRoundTrip(t *testing.T) {
	idx, pkg, publisherID := setupPackage(t)
	ctx := context.Background()

	v := mustVersion(t, idx, pkg, publisherID, "1.0.0")
	require.Nil(t, v.Yanked)

	require.NoError(t, idx.SetVersionYanked(ctx, v.ID, "security issue"))
	got, err := idx.FindVersionExact(ctx, pkg.ID, v.Number)
	require.NoError(t, err)
	require.NotNil(t, got.Yanked)
	require.Equal(t, "security issue", *got.Yanked)

	require.NoError(t, idx.SetVersionYanked(ctx, v.ID, ""))
	got, err = idx.FindVersionExact(ctx, pkg.ID, v.Number)
	require.NoError(t, err)
	require.Nil(t, got.Yanked)
}
