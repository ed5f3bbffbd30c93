package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustPublisher(t *testing.T, idx *Index, seed byte) *Publisher {
	t.Helper()
	var addr [20]byte
	addr[0] = seed
	p, err := idx.CreatePublisher(context.Background(), addr)
	require.NoError(t, err)
	return p
}

func TestCreateNamespaceAndLookup(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)

	ns, err := idx.CreateNamespace(ctx, "acme", "acme", owner.ID)
	require.NoError(t, err)
	require.Equal(t, owner.ID, ns.OwnerPublisherID)

	byName, err := idx.FindNamespaceByName(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, ns.ID, byName.ID)
}

func TestCreateNamespaceDuplicateName(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)

	_, err := idx.CreateNamespace(ctx, "acme", "acme", owner.ID)
	require.NoError(t, err)

	_, err = idx.CreateNamespace(ctx, "acme", "acme-2", owner.ID)
	require.ErrorIs(t, err, ErrNamespaceExists)
}

func TestCreateNamespaceConfusableSkeletonCollision(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)

	// "аcme" with a Cyrillic а (U+0430) folds to the same skeleton as
	// "acme" (spec.md §8 scenario 3/4 confusable-collision behavior).
	_, err := idx.CreateNamespace(ctx, "acme", "acme", owner.ID)
	require.NoError(t, err)

	_, err = idx.CreateNamespace(ctx, "аcme", "acme", owner.ID)
	require.ErrorIs(t, err, ErrNamespaceExists)
}

func TestNamespaceMembershipRestrictions(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	owner := mustPublisher(t, idx, 1)
	member := mustPublisher(t, idx, 2)

	ns, err := idx.CreateNamespace(ctx, "acme", "acme", owner.ID)
	require.NoError(t, err)

	require.NoError(t, idx.UpsertNamespaceMember(ctx, ns.ID, member.ID, []int64{42}))

	m, err := idx.FindNamespaceMember(ctx, ns.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.True(t, m.CanPublish(42))
	require.False(t, m.CanPublish(7))

	require.NoError(t, idx.UpsertNamespaceMember(ctx, ns.ID, member.ID, nil))
	m, err = idx.FindNamespaceMember(ctx, ns.ID, member.ID)
	require.NoError(t, err)
	require.True(t, m.CanPublish(7)) // empty restrictions = unrestricted

	require.NoError(t, idx.RemoveNamespaceMember(ctx, ns.ID, member.ID))
	m, err = idx.FindNamespaceMember(ctx, ns.ID, member.ID)
	require.NoError(t, err)
	require.Nil(t, m)
}
