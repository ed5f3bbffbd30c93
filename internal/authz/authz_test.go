package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/semver"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestAuthorizeUnknownPublisher(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)

	var addr [20]byte
	addr[0] = 0x01
	_, err := r.Authorize(context.Background(), addr, "mock-namespace", nil, nil)
	require.ErrorIs(t, err, index.ErrUnknownPublisher)
}

func TestAuthorizeUnknownNamespace(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)
	ctx := context.Background()

	var addr [20]byte
	addr[0] = 0x02
	_, err := idx.CreatePublisher(ctx, addr)
	require.NoError(t, err)

	_, err = r.Authorize(ctx, addr, "mock-namespace", nil, nil)
	require.ErrorIs(t, err, index.ErrUnknownNamespace)
}

func TestAuthorizeOwnerFastPath(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)
	ctx := context.Background()

	var addr [20]byte
	addr[0] = 0x03
	pub, err := idx.CreatePublisher(ctx, addr)
	require.NoError(t, err)
	_, err = idx.CreateNamespace(ctx, "mock-namespace", "mock-namespace", pub.ID)
	require.NoError(t, err)

	result, err := r.Authorize(ctx, addr, "mock-namespace", nil, nil)
	require.NoError(t, err)
	require.Equal(t, pub.ID, result.Publisher.ID)
}

func TestAuthorizeNonMemberUnauthorized(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)
	ctx := context.Background()

	var owner, stranger [20]byte
	owner[0], stranger[0] = 0x04, 0x05
	ownerPub, err := idx.CreatePublisher(ctx, owner)
	require.NoError(t, err)
	_, err = idx.CreateNamespace(ctx, "mock-namespace", "mock-namespace", ownerPub.ID)
	require.NoError(t, err)
	_, err = idx.CreatePublisher(ctx, stranger)
	require.NoError(t, err)

	_, err = r.Authorize(ctx, stranger, "mock-namespace", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorizeRestrictedMemberNewPackageUnauthorized(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)
	ctx := context.Background()

	var owner, member [20]byte
	owner[0], member[0] = 0x06, 0x07
	ownerPub, err := idx.CreatePublisher(ctx, owner)
	require.NoError(t, err)
	ns, err := idx.CreateNamespace(ctx, "mock-namespace", "mock-namespace", ownerPub.ID)
	require.NoError(t, err)
	memberPub, err := idx.CreatePublisher(ctx, member)
	require.NoError(t, err)

	pkg, err := idx.CreatePackage(ctx, ns.ID, "mock-package", "mock-package")
	require.NoError(t, err)
	require.NoError(t, idx.UpsertNamespaceMember(ctx, ns.ID, memberPub.ID, []int64{pkg.ID}))

	name := "mock-package"
	result, err := r.Authorize(ctx, member, "mock-namespace", &name, nil)
	require.NoError(t, err)
	require.Equal(t, pkg.ID, result.Package.ID)

	otherName := "unlisted-package"
	_, err = r.Authorize(ctx, member, "mock-namespace", &otherName, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorizeVersionNotAhead(t *testing.T) {
	idx := openTestIndex(t)
	r := New(idx)
	ctx := context.Background()

	var owner [20]byte
	owner[0] = 0x08
	ownerPub, err := idx.CreatePublisher(ctx, owner)
	require.NoError(t, err)
	ns, err := idx.CreateNamespace(ctx, "mock-namespace", "mock-namespace", ownerPub.ID)
	require.NoError(t, err)
	pkg, err := idx.CreatePackage(ctx, ns.ID, "mock-package", "mock-package")
	require.NoError(t, err)

	v1, err := semver.Parse("1.0.0")
	require.NoError(t, err)
	_, err = idx.InsertVersion(ctx, ownerPub.ID, pkg.ID, v1, []byte(`{}`), "obj", "ptr", [65]byte{}, [32]byte{})
	require.NoError(t, err)

	name := "mock-package"
	older, err := semver.Parse("0.9.0")
	require.NoError(t, err)
	_, err = r.Authorize(ctx, owner, "mock-namespace", &name, &older)
	require.ErrorIs(t, err, index.ErrVersionNotAhead)

	same, err := semver.Parse("1.0.0")
	require.NoError(t, err)
	_, err = r.Authorize(ctx, owner, "mock-namespace", &name, &same)
	require.ErrorIs(t, err, index.ErrPackageExists)

	newer, err := semver.Parse("1.0.1")
	require.NoError(t, err)
	result, err := r.Authorize(ctx, owner, "mock-namespace", &name, &newer)
	require.NoError(t, err)
	require.Equal(t, pkg.ID, result.Package.ID)
}
