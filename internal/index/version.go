package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/libreseed/registry/internal/semver"
)

// packedColumnExpr renders the SQL expression for one of the planner's
// packed columns (spec.md §4.E). The schema stores major/minor/patch as
// plain integers rather than materialized packed columns, so the
// expression is computed inline at query time.
func packedColumnExpr(col semver.Column) string {
	switch col {
	case semver.ColumnMajor:
		return "major"
	case semver.ColumnMajorMinor:
		return "(major * 1000000 + minor)"
	default: // ColumnMajorMinorPatch
		return "(major * 1000000000000 + minor * 1000000 + patch)"
	}
}

// InsertVersion records a new immutable version row, mapping a unique
// constraint violation on (package_id, major, minor, patch, pre, build) to
// ErrVersionExists (spec.md §3's "append-only" invariant).
func (idx *Index) InsertVersion(ctx context.Context, publisherID, packageID int64, number semver.Version, descriptor json.RawMessage, objectKey, pointerKey string, signature [65]byte, checksum [32]byte) (*Version, error) {
	res, err := idx.db.ExecContext(ctx,
		`INSERT INTO versions
			(publisher_id, package_id, major, minor, patch, pre, build, descriptor, object_key, pointer_key, signature, checksum)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		publisherID, packageID, number.Major, number.Minor, number.Patch, number.Pre, number.Build,
		string(descriptor), objectKey, pointerKey, signature[:], checksum[:])
	if isUniqueConstraintErr(err) {
		return nil, ErrVersionExists
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return idx.findVersionByID(ctx, id)
}

func (idx *Index) findVersionByID(ctx context.Context, id int64) (*Version, error) {
	row := idx.db.QueryRowContext(ctx, versionSelect+` WHERE version_id = ?`, id)
	return scanVersion(row)
}

const versionSelect = `
	SELECT version_id, publisher_id, package_id, major, minor, patch, pre, build,
	       descriptor, object_key, pointer_key, signature, checksum, yanked, created_at
	FROM versions`

func scanVersion(row *sql.Row) (*Version, error) {
	var v Version
	var descriptor string
	var sig, checksum []byte
	if err := row.Scan(&v.ID, &v.PublisherID, &v.PackageID,
		&v.Number.Major, &v.Number.Minor, &v.Number.Patch, &v.Number.Pre, &v.Number.Build,
		&descriptor, &v.ObjectKey, &v.PointerKey, &sig, &checksum, &v.Yanked, &v.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	v.Descriptor = json.RawMessage(descriptor)
	copy(v.Signature[:], sig)
	copy(v.Checksum[:], checksum)
	return &v, nil
}

// FindVersionExact returns the version exactly matching number within
// packageID, or (nil, nil).
func (idx *Index) FindVersionExact(ctx context.Context, packageID int64, number semver.Version) (*Version, error) {
	row := idx.db.QueryRowContext(ctx,
		versionSelect+` WHERE package_id = ? AND major = ? AND minor = ? AND patch = ? AND pre = ? AND build = ?`,
		packageID, number.Major, number.Minor, number.Patch, number.Pre, number.Build)
	return scanVersion(row)
}

// FindLatestVersion returns the highest-sorting non-yanked version for
// packageID, excluding prereleases unless includePrerelease is set
// (spec.md §4.E's default ordering rule).
func (idx *Index) FindLatestVersion(ctx context.Context, packageID int64, includePrerelease bool) (*Version, error) {
	query := versionSelect + ` WHERE package_id = ? AND yanked IS NULL`
	if !includePrerelease {
		query += ` AND pre = ''`
	}
	query += ` ORDER BY major DESC, minor DESC, patch DESC, pre DESC LIMIT 1`

	row := idx.db.QueryRowContext(ctx, query, packageID)
	return scanVersion(row)
}

// FindHighestVersion returns the highest-sorting version row for packageID
// across every version ever inserted, yanked or not, prerelease or not.
// This is the comparator the monotonicity invariant in spec.md §3 uses:
// yanking withdraws use, it does not reopen the version number.
func (idx *Index) FindHighestVersion(ctx context.Context, packageID int64) (*Version, error) {
	rows, err := idx.db.QueryContext(ctx, versionSelect+` WHERE package_id = ?`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highest *Version
	for rows.Next() {
		v, err := scanVersionFromRows(rows)
		if err != nil {
			return nil, err
		}
		if highest == nil || v.Number.Compare(highest.Number) > 0 {
			highest = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return highest, nil
}

// SetVersionYanked sets (or, with reason == "", clears) a version's yanked
// marker. Overwrite/empty-clears semantics per DESIGN.md's Open Question
// decision, matching SetDeprecated.
func (idx *Index) SetVersionYanked(ctx context.Context, versionID int64, reason string) error {
	var value interface{}
	if reason != "" {
		value = reason
	}
	_, err := idx.db.ExecContext(ctx, `UPDATE versions SET yanked = ? WHERE version_id = ?`, value, versionID)
	return err
}

// ListVersions paginates every version of packageID in the pager's
// direction (ascending unless the pager says DESC). The
// ORDER BY covers the full (major, minor, patch, pre, build) tuple, not
// just the first three components, matching list_versions in the original
// source: two versions sharing (major,minor,patch) but differing in pre
// or build must still sort deterministically, or pagination across pages
// is unstable.
func (idx *Index) ListVersions(ctx context.Context, packageID int64, pager Pager) (ResultSet[Version], error) {
	dir := pager.directionSQL()
	rows, err := idx.db.QueryContext(ctx,
		`SELECT (SELECT COUNT(*) FROM versions WHERE package_id = ?) AS count,
		        version_id, publisher_id, package_id, major, minor, patch, pre, build,
		        descriptor, object_key, pointer_key, signature, checksum, yanked, created_at
		 FROM versions
		 WHERE package_id = ?
		 ORDER BY major `+dir+`, minor `+dir+`, patch `+dir+`, pre `+dir+`, build `+dir+`
		 LIMIT ? OFFSET ?`,
		packageID, packageID, pager.limit(), pager.Offset)
	if err != nil {
		return ResultSet[Version]{}, err
	}
	defer rows.Close()
	return scanVersionRows(rows)
}

// FindVersionByContentID looks up the version whose object_key column
// encodes cid, used to serve PackageKey::Cid fetches (spec.md §4.E).
func (idx *Index) FindVersionByContentID(ctx context.Context, cid string) (*Version, error) {
	row := idx.db.QueryRowContext(ctx, versionSelect+` WHERE object_key LIKE ?`, "%\"cid\":\""+cid+"\"%")
	return scanVersion(row)
}

// FindVersions runs the packed-column SemVer range planner spec.md §4.E
// requires: rangeExpr parses into one or more Comparators, each expanding
// to AND-joined Predicates; Comparators are OR-joined across the whole
// expression (never AND-joined against each other). Yanked versions are
// always excluded, even when rangeExpr pins an exact version; prereleases
// are excluded unless includePrerelease is set.
func (idx *Index) FindVersions(ctx context.Context, packageID int64, rangeExpr string, includePrerelease bool, pager Pager) (ResultSet[Version], error) {
	rng, err := semver.ParseRange(rangeExpr)
	if err != nil {
		return ResultSet[Version]{}, err
	}

	var orClauses []string
	var args []interface{}
	for _, comparator := range rng {
		var andClauses []string
		for _, pred := range comparator.Predicates() {
			andClauses = append(andClauses, fmt.Sprintf("%s %s ?", packedColumnExpr(pred.Column), pred.Op))
			args = append(args, pred.Value)
		}
		if comparator.Pre != "" {
			andClauses = append(andClauses, "pre = ?")
			args = append(args, comparator.Pre)
		}
		if len(andClauses) > 0 {
			orClauses = append(orClauses, "("+strings.Join(andClauses, " AND ")+")")
		}
	}
	if len(orClauses) == 0 {
		return ResultSet[Version]{}, semver.ErrInvalidRange
	}

	where := "package_id = ? AND yanked IS NULL AND (" + strings.Join(orClauses, " OR ") + ")"
	if !includePrerelease {
		where += " AND pre = ''"
	}

	var queryArgs []interface{}
	queryArgs = append(queryArgs, packageID)
	queryArgs = append(queryArgs, args...) // for the COUNT(*) subquery's WHERE
	queryArgs = append(queryArgs, packageID)
	queryArgs = append(queryArgs, args...) // for the outer WHERE
	queryArgs = append(queryArgs, pager.limit(), pager.Offset)

	dir := pager.directionSQL()
	orderBy := "major " + dir + ", minor " + dir + ", patch " + dir
	if includePrerelease {
		// spec.md §4.E: pre and build participate in the ordering,
		// lexicographically, only once include_prerelease is set.
		orderBy += ", pre " + dir + ", build " + dir
	}

	rows, err := idx.db.QueryContext(ctx,
		`SELECT (SELECT COUNT(*) FROM versions WHERE `+where+`) AS count,
		        version_id, publisher_id, package_id, major, minor, patch, pre, build,
		        descriptor, object_key, pointer_key, signature, checksum, yanked, created_at
		 FROM versions
		 WHERE `+where+`
		 ORDER BY `+orderBy+`
		 LIMIT ? OFFSET ?`,
		queryArgs...)
	if err != nil {
		return ResultSet[Version]{}, err
	}
	defer rows.Close()
	return scanVersionRows(rows)
}

// scanVersionFromRows scans one row of a plain versionSelect query (no
// leading COUNT(*) column), unlike scanVersionRows which backs ResultSet.
func scanVersionFromRows(rows *sql.Rows) (*Version, error) {
	var v Version
	var descriptor string
	var sig, checksum []byte
	if err := rows.Scan(&v.ID, &v.PublisherID, &v.PackageID,
		&v.Number.Major, &v.Number.Minor, &v.Number.Patch, &v.Number.Pre, &v.Number.Build,
		&descriptor, &v.ObjectKey, &v.PointerKey, &sig, &checksum, &v.Yanked, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Descriptor = json.RawMessage(descriptor)
	copy(v.Signature[:], sig)
	copy(v.Checksum[:], checksum)
	return &v, nil
}

func scanVersionRows(rows *sql.Rows) (ResultSet[Version], error) {
	var result ResultSet[Version]
	for rows.Next() {
		var v Version
		var descriptor string
		var sig, checksum []byte
		if err := rows.Scan(&result.Count, &v.ID, &v.PublisherID, &v.PackageID,
			&v.Number.Major, &v.Number.Minor, &v.Number.Patch, &v.Number.Pre, &v.Number.Build,
			&descriptor, &v.ObjectKey, &v.PointerKey, &sig, &checksum, &v.Yanked, &v.CreatedAt); err != nil {
			return ResultSet[Version]{}, err
		}
		v.Descriptor = json.RawMessage(descriptor)
		copy(v.Signature[:], sig)
		copy(v.Checksum[:], checksum)
		result.Records = append(result.Records, v)
	}
	if err := rows.Err(); err != nil {
		return ResultSet[Version]{}, err
	}
	return result, nil
}
