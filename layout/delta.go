package layout

import (
	"fmt"
	"sort"

	"github.com/blang/semver/v4"
)

type deltaOp uint8

const (
	opReplace deltaOp = iota
	opDelete
	opInsertAfter
)

func (op deltaOp) String() string {
	switch op {
	case opReplace:
		return "replace"
	case opDelete:
		return "delete"
	case opInsertAfter:
		return "insert-after"
	default:
		return "unknown"
	}
}

// Delta is one incremental change to an ordered field list.
type Delta struct {
	op     deltaOp
	target string
	typ    Type        // Replace only
	fields []FieldSpec // InsertAfter only
}

// Replace substitutes the type of the named field, keeping its position.
func Replace(name string, t Type) Delta {
	return Delta{op: opReplace, target: name, typ: t}
}

// Delete removes the named field.
func Delete(name string) Delta {
	return Delta{op: opDelete, target: name}
}

// InsertAfter splices one or more fields immediately after the named field,
// preserving their given order.
func InsertAfter(name string, fields ...FieldSpec) Delta {
	return Delta{op: opInsertAfter, target: name, fields: fields}
}

// ChangeSet binds the deltas introduced by one library version.
type ChangeSet struct {
	Version semver.Version
	Deltas  []Delta
}

// ResolutionError reports a delta whose target field does not exist at the
// time the delta is applied. It indicates a defect in the declared version
// data (or a version/registry mismatch), not a runtime condition.
type ResolutionError struct {
	Version semver.Version
	Op      string
	Target  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("layout: %s delta of version %s references unknown field %q", e.Op, e.Version, e.Target)
}

// Applicable returns the change sets with Version <= target, in ascending
// version order regardless of declaration order. It does not modify sets.
func Applicable(sets []ChangeSet, target semver.Version) []ChangeSet {
	selected := make([]ChangeSet, 0, len(sets))
	for _, cs := range sets {
		if cs.Version.LE(target) {
			selected = append(selected, cs)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Version.LT(selected[j].Version)
	})
	return selected
}

// Resolve folds change sets onto a base field list, applying them in
// ascending version order. The base list is not modified. Callers filter
// sets to the target version with Applicable first.
func Resolve(base []FieldSpec, sets []ChangeSet) ([]FieldSpec, error) {
	sorted := make([]ChangeSet, len(sets))
	copy(sorted, sets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version.LT(sorted[j].Version)
	})

	fields := make([]FieldSpec, len(base))
	copy(fields, base)

	for _, cs := range sorted {
		for _, d := range cs.Deltas {
			idx := -1
			for i, f := range fields {
				if f.Name == d.target {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, &ResolutionError{Version: cs.Version, Op: d.op.String(), Target: d.target}
			}

			switch d.op {
			case opReplace:
				fields[idx].Type = d.typ
			case opDelete:
				fields = append(fields[:idx], fields[idx+1:]...)
			case opInsertAfter:
				tail := make([]FieldSpec, len(fields[idx+1:]))
				copy(tail, fields[idx+1:])
				fields = append(fields[:idx+1], d.fields...)
				fields = append(fields, tail...)
			}
		}
	}

	return fields, nil
}

// VersionOrder collapses a version into a single comparable integer using
// three-digit positional weighting: 5.2.1 becomes 5002001.
func VersionOrder(v semver.Version) uint64 {
	return v.Major*1_000_000 + v.Minor*1_000 + v.Patch
}
