package index

import (
	"context"
	"database/sql"
	"encoding/json"
)

// CreateNamespace registers name (with its precomputed skeleton) owned by
// ownerPublisherID. Namespaces cannot be transferred or deleted once
// created (spec.md §3).
func (idx *Index) CreateNamespace(ctx context.Context, name, skeleton string, ownerPublisherID int64) (*Namespace, error) {
	res, err := idx.db.ExecContext(ctx,
		`INSERT INTO namespaces (name, skeleton, publisher_id) VALUES (?, ?, ?)`,
		name, skeleton, ownerPublisherID)
	if isUniqueConstraintErr(err) {
		return nil, ErrNamespaceExists
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return idx.FindNamespaceByID(ctx, id)
}

// FindNamespaceByName returns the namespace named name, or (nil, nil).
func (idx *Index) FindNamespaceByName(ctx context.Context, name string) (*Namespace, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT namespace_id, name, skeleton, publisher_id, created_at FROM namespaces WHERE name = ?`, name)
	return scanNamespace(row)
}

// FindNamespaceBySkeleton returns the namespace whose skeleton matches,
// used to detect confusable collisions before insert.
func (idx *Index) FindNamespaceBySkeleton(ctx context.Context, skeleton string) (*Namespace, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT namespace_id, name, skeleton, publisher_id, created_at FROM namespaces WHERE skeleton = ?`, skeleton)
	return scanNamespace(row)
}

// FindNamespaceByID returns the namespace by surrogate id.
func (idx *Index) FindNamespaceByID(ctx context.Context, id int64) (*Namespace, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT namespace_id, name, skeleton, publisher_id, created_at FROM namespaces WHERE namespace_id = ?`, id)
	return scanNamespace(row)
}

func scanNamespace(row *sql.Row) (*Namespace, error) {
	var n Namespace
	if err := row.Scan(&n.ID, &n.Name, &n.Skeleton, &n.OwnerPublisherID, &n.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// UpsertNamespaceMember adds publisherID as a member of namespaceID with
// the given package-id restriction list (empty = unrestricted), replacing
// any prior membership row for the pair.
func (idx *Index) UpsertNamespaceMember(ctx context.Context, namespaceID, publisherID int64, restrictions []int64) error {
	if restrictions == nil {
		restrictions = []int64{}
	}
	raw, err := json.Marshal(restrictions)
	if err != nil {
		return err
	}
	_, err = idx.db.ExecContext(ctx,
		`INSERT INTO namespace_publishers (namespace_id, publisher_id, restrictions)
		 VALUES (?, ?, ?)
		 ON CONFLICT(namespace_id, publisher_id) DO UPDATE SET restrictions = excluded.restrictions`,
		namespaceID, publisherID, string(raw))
	return err
}

// RemoveNamespaceMember drops publisherID's membership of namespaceID.
func (idx *Index) RemoveNamespaceMember(ctx context.Context, namespaceID, publisherID int64) error {
	_, err := idx.db.ExecContext(ctx,
		`DELETE FROM namespace_publishers WHERE namespace_id = ? AND publisher_id = ?`,
		namespaceID, publisherID)
	return err
}

// FindNamespaceMember returns publisherID's membership row for
// namespaceID, or (nil, nil) if the publisher is not a member (the owner
// is never a member row; ownership is checked separately).
func (idx *Index) FindNamespaceMember(ctx context.Context, namespaceID, publisherID int64) (*NamespaceMember, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT namespace_id, publisher_id, restrictions FROM namespace_publishers
		 WHERE namespace_id = ? AND publisher_id = ?`, namespaceID, publisherID)

	var m NamespaceMember
	var raw string
	if err := row.Scan(&m.NamespaceID, &m.PublisherID, &raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &m.Restrictions); err != nil {
		return nil, err
	}
	return &m, nil
}
