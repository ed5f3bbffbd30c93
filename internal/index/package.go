package index

import (
	"context"
	"database/sql"
)

// VersionIncludes controls whether ListPackages attaches version rows to
// each returned package, mirroring PackageModel::list_packages's
// VersionIncludes enum in the original source.
type VersionIncludes int

const (
	VersionIncludesNone VersionIncludes = iota
	VersionIncludesLatest
)

// CreatePackage creates a package implicitly on first successful version
// publish (spec.md §3: "Lifecycle").
func (idx *Index) CreatePackage(ctx context.Context, namespaceID int64, name, skeleton string) (*Package, error) {
	res, err := idx.db.ExecContext(ctx,
		`INSERT INTO packages (namespace_id, name, skeleton) VALUES (?, ?, ?)`,
		namespaceID, name, skeleton)
	if isUniqueConstraintErr(err) {
		return nil, ErrPackageExists
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return idx.FindPackageByID(ctx, id)
}

// FindPackageByName returns the package named name within namespaceID, or
// (nil, nil).
func (idx *Index) FindPackageByName(ctx context.Context, namespaceID int64, name string) (*Package, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT package_id, namespace_id, name, skeleton, deprecated, created_at
		 FROM packages WHERE namespace_id = ? AND name = ?`, namespaceID, name)
	return scanPackage(row)
}

// FindPackageBySkeleton returns the package within namespaceID whose
// skeleton matches, used to detect confusable collisions before insert.
func (idx *Index) FindPackageBySkeleton(ctx context.Context, namespaceID int64, skeleton string) (*Package, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT package_id, namespace_id, name, skeleton, deprecated, created_at
		 FROM packages WHERE namespace_id = ? AND skeleton = ?`, namespaceID, skeleton)
	return scanPackage(row)
}

// FindPackageByID returns the package by surrogate id.
func (idx *Index) FindPackageByID(ctx context.Context, id int64) (*Package, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT package_id, namespace_id, name, skeleton, deprecated, created_at
		 FROM packages WHERE package_id = ?`, id)
	return scanPackage(row)
}

func scanPackage(row *sql.Row) (*Package, error) {
	var p Package
	if err := row.Scan(&p.ID, &p.NamespaceID, &p.Name, &p.Skeleton, &p.Deprecated, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SetDeprecated sets (or, with message == "", clears) the package's
// deprecation message. Overwrite semantics per spec.md §9 Open Question
// (a): calling again always replaces the prior value.
func (idx *Index) SetDeprecated(ctx context.Context, packageID int64, message string) error {
	var value interface{}
	if message != "" {
		value = message
	}
	_, err := idx.db.ExecContext(ctx,
		`UPDATE packages SET deprecated = ? WHERE package_id = ?`, value, packageID)
	return err
}

// ListPackages lists packages within namespaceID, optionally attaching
// each package's latest non-yanked, non-prerelease version, mirroring
// PackageModel::list_packages in the original source.
func (idx *Index) ListPackages(ctx context.Context, namespaceID int64, pager Pager, includeVersions VersionIncludes) (ResultSet[Package], error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT (SELECT COUNT(*) FROM packages WHERE namespace_id = ?) AS count,
		        package_id, namespace_id, name, skeleton, deprecated, created_at
		 FROM packages
		 WHERE namespace_id = ?
		 ORDER BY name `+pager.directionSQL()+`
		 LIMIT ? OFFSET ?`,
		namespaceID, namespaceID, pager.limit(), pager.Offset)
	if err != nil {
		return ResultSet[Package]{}, err
	}
	defer rows.Close()

	var result ResultSet[Package]
	for rows.Next() {
		var p Package
		if err := rows.Scan(&result.Count, &p.ID, &p.NamespaceID, &p.Name, &p.Skeleton, &p.Deprecated, &p.CreatedAt); err != nil {
			return ResultSet[Package]{}, err
		}
		result.Records = append(result.Records, p)
	}
	if err := rows.Err(); err != nil {
		return ResultSet[Package]{}, err
	}

	if includeVersions == VersionIncludesLatest {
		for i := range result.Records {
			latest, err := idx.FindLatestVersion(ctx, result.Records[i].ID, false)
			if err != nil {
				return ResultSet[Package]{}, err
			}
			result.Records[i].LatestVersion = latest
		}
	}

	return result, nil
}
