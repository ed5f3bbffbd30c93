// Package semver parses concrete versions and SemVer range comparators and
// exposes the packed-column predicates the index's query planner (spec.md
// §4.E) needs, without committing to any particular SQL dialect.
package semver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a version string cannot be parsed.
var ErrInvalidVersion = errors.New("semver: invalid version")

// ErrInvalidRange is returned when a range expression cannot be parsed.
var ErrInvalidRange = errors.New("semver: invalid range")

// Version is the packed (major, minor, patch, pre, build) tuple spec.md §3
// assigns to every published version row.
type Version struct {
	Major, Minor, Patch uint64
	Pre                 string
	Build               string
}

// Parse parses a concrete "major.minor.patch[-pre][+build]" version string,
// delegating numeric/prerelease parsing to Masterminds/semver/v3 and then
// re-projecting onto the flat tuple the index stores.
func Parse(s string) (Version, error) {
	v, err := mmsemver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %v", ErrInvalidVersion, err)
	}
	return Version{
		Major: v.Major(),
		Minor: v.Minor(),
		Patch: v.Patch(),
		Pre:   v.Prerelease(),
		Build: v.Metadata(),
	}, nil
}

// String renders the version in canonical form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// MarshalJSON renders a Version as its canonical string form, so wire
// responses (VersionRecord, Receipt) carry "1.2.3-rc.1" rather than a
// struct of bare numeric fields.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON parses a Version from its canonical string form.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare returns -1, 0, or 1 comparing v to other under SemVer total order:
// major, minor, patch first; a version with a non-empty Pre sorts before
// the same (major,minor,patch) with an empty Pre; Pre is compared
// lexicographically (spec.md §4.E's "include_prerelease" ordering clause);
// Build participates only as a final lexicographic tie-break, matching the
// "included only when include_prerelease is set" ordering rule.
func (v Version) Compare(other Version) int {
	if c := cmpUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmpUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmpUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	switch {
	case v.Pre == "" && other.Pre == "":
		// fall through to build comparison
	case v.Pre == "" && other.Pre != "":
		return 1
	case v.Pre != "" && other.Pre == "":
		return -1
	default:
		if c := strings.Compare(v.Pre, other.Pre); c != 0 {
			return c
		}
	}
	return strings.Compare(v.Build, other.Build)
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Column names the packed columns spec.md §4.E's planner chooses from. The
// fourth column (major∥minor∥patch∥pre) has no numeric packing here since
// pre is a string: an exact Pre match is instead ANDed onto whichever
// numeric column the comparator resolves to (see FindVersions).
type Column string

const (
	ColumnMajor           Column = "major"
	ColumnMajorMinor      Column = "major_minor"
	ColumnMajorMinorPatch Column = "major_minor_patch"
)

// Op is a single packed-column comparison operator.
type Op string

const (
	OpEq Op = "="
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// Predicate is one column/operator/value triple. A Comparator expands to one
// or two Predicates (tilde and caret ranges need an upper bound) that are
// ANDed together; Comparators within a Range are ORed together per
// spec.md §4.E.
type Predicate struct {
	Column Column
	Op     Op
	Value  uint64
}

// Comparator is a single parsed element of a range expression, e.g. "^1.2.3"
// or "*".
type Comparator struct {
	Op          string // "=", ">", ">=", "<", "<=", "~", "^", "*"
	Major       uint64
	Minor       uint64
	Patch       uint64
	Pre         string
	HasMinor    bool
	HasPatch    bool
}

// Range is an ordered, OR-joined list of Comparators.
type Range []Comparator

// ParseRange parses a whitespace- or comma-separated list of comparators.
// Supported operators: "=", ">", ">=", "<", "<=", "~", "^", and the bare
// wildcard "*". A bare version with no operator is treated as "=".
func ParseRange(expr string) (Range, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrInvalidRange
	}

	fields := strings.FieldsFunc(expr, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, ErrInvalidRange
	}

	out := make(Range, 0, len(fields))
	for _, f := range fields {
		c, err := parseComparator(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseComparator(tok string) (Comparator, error) {
	if tok == "*" {
		return Comparator{Op: "*"}, nil
	}

	op := "="
	rest := tok
	switch {
	case strings.HasPrefix(tok, ">="):
		op, rest = ">=", tok[2:]
	case strings.HasPrefix(tok, "<="):
		op, rest = "<=", tok[2:]
	case strings.HasPrefix(tok, ">"):
		op, rest = ">", tok[1:]
	case strings.HasPrefix(tok, "<"):
		op, rest = "<", tok[1:]
	case strings.HasPrefix(tok, "="):
		op, rest = "=", tok[1:]
	case strings.HasPrefix(tok, "~"):
		op, rest = "~", tok[1:]
	case strings.HasPrefix(tok, "^"):
		op, rest = "^", tok[1:]
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Comparator{}, ErrInvalidRange
	}

	main := rest
	pre := ""
	if idx := strings.IndexByte(rest, '-'); idx >= 0 {
		main, pre = rest[:idx], rest[idx+1:]
	}
	if idx := strings.IndexByte(main, '+'); idx >= 0 {
		main = main[:idx] // build metadata does not participate in range matching
	}

	parts := strings.Split(main, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Comparator{}, ErrInvalidRange
	}

	c := Comparator{Op: op, Pre: pre}
	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Comparator{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	c.Major = major

	if len(parts) >= 2 {
		minor, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return Comparator{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		c.Minor, c.HasMinor = minor, true
	}
	if len(parts) == 3 {
		patch, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return Comparator{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		c.Patch, c.HasPatch = patch, true
	}

	return c, nil
}

// pack computes the numeric packed-column value for (major, minor, patch)
// at the given precision, using a fixed-width multiplier per component
// (spec.md §9's design note: a computed numeric column is an equally valid
// packed-column representation, chosen here over raw string concatenation
// to get correct numeric ordering without zero-padding).
const packWidth = 1_000_000

func pack1(major uint64) uint64 {
	return major
}
func pack2(major, minor uint64) uint64 {
	return major*packWidth + minor
}
func pack3(major, minor, patch uint64) uint64 {
	return major*packWidth*packWidth + minor*packWidth + patch
}

// Predicates expands a Comparator into the AND-joined packed-column clauses
// that implement it, following the operator table in spec.md §4.E exactly.
func (c Comparator) Predicates() []Predicate {
	switch c.Op {
	case "*":
		if !c.HasMinor {
			return []Predicate{{ColumnMajor, OpEq, pack1(c.Major)}}
		}
		if !c.HasPatch {
			return []Predicate{{ColumnMajorMinor, OpEq, pack2(c.Major, c.Minor)}}
		}
		return []Predicate{{ColumnMajorMinorPatch, OpEq, pack3(c.Major, c.Minor, c.Patch)}}

	case "=", ">", ">=", "<", "<=":
		col, val := c.narrowestColumn()
		return []Predicate{{col, Op(c.Op), val}}

	case "~":
		if !c.HasPatch {
			return []Predicate{{ColumnMajorMinor, OpEq, pack2(c.Major, c.Minor)}}
		}
		lower := pack3(c.Major, c.Minor, c.Patch)
		upper := pack3(c.Major, c.Minor+1, 0)
		return []Predicate{
			{ColumnMajorMinorPatch, OpGe, lower},
			{ColumnMajorMinorPatch, OpLt, upper},
		}

	case "^":
		if !c.HasPatch {
			col, val := c.narrowestColumn()
			return []Predicate{{col, OpEq, val}}
		}
		if c.Major > 0 {
			lower := pack3(c.Major, c.Minor, c.Patch)
			upper := pack3(c.Major+1, 0, 0)
			return []Predicate{
				{ColumnMajorMinorPatch, OpGe, lower},
				{ColumnMajorMinorPatch, OpLt, upper},
			}
		}
		if c.Minor > 0 {
			lower := pack3(c.Major, c.Minor, c.Patch)
			upper := pack3(c.Major, c.Minor+1, 0)
			return []Predicate{
				{ColumnMajorMinorPatch, OpGe, lower},
				{ColumnMajorMinorPatch, OpLt, upper},
			}
		}
		return []Predicate{{ColumnMajorMinorPatch, OpEq, pack3(c.Major, c.Minor, c.Patch)}}
	}

	return nil
}

// narrowestColumn picks the packed column matching how much of
// (major, minor, patch, pre) the comparator specified.
func (c Comparator) narrowestColumn() (Column, uint64) {
	switch {
	case !c.HasMinor:
		return ColumnMajor, pack1(c.Major)
	case !c.HasPatch:
		return ColumnMajorMinor, pack2(c.Major, c.Minor)
	default:
		return ColumnMajorMinorPatch, pack3(c.Major, c.Minor, c.Patch)
	}
}

// Pack3 exposes the (major,minor,patch) packed value for a concrete
// Version. The index does not call it: it computes the same value inline
// in SQL from the plain major/minor/patch columns.
func Pack3(v Version) uint64 {
	return pack3(v.Major, v.Minor, v.Patch)
}
