// Package layout describes versioned C struct layouts and materializes them
// into fixed byte offsets usable for foreign calls.
//
// A layout starts as an ordered list of FieldSpec. Incremental changes
// between library versions are expressed as ChangeSet values (Replace,
// Delete, InsertAfter deltas keyed by the version that introduced them);
// Resolve folds the applicable change sets onto a base field list. New then
// computes per-field offsets following the target platform's natural C
// alignment rules, which must match the foreign library's own struct packing
// exactly.
package layout

import (
	"fmt"
	"unsafe"
)

// Kind enumerates the primitive field kinds of the foreign struct.
type Kind uint8

const (
	Invalid Kind = iota
	Int32        // 32-bit signed integer
	Uint64       // 64-bit unsigned integer
	Float64      // double precision; complex data is submitted as pairs
	Ptr          // foreign pointer, never dereferenced by this layer
	Bytes        // fixed-length character buffer
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Float64:
		return "float64"
	case Ptr:
		return "ptr"
	case Bytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Type is a primitive kind with a fixed element count. Scalars have Count 1;
// Bytes types use Count as the buffer length.
type Type struct {
	Kind  Kind
	Count int
}

// Of returns the scalar type of kind k.
func Of(k Kind) Type {
	return Type{Kind: k, Count: 1}
}

// ArrayOf returns an array type of n elements of kind k.
func ArrayOf(k Kind, n int) Type {
	return Type{Kind: k, Count: n}
}

func (t Type) elemSize() uintptr {
	switch t.Kind {
	case Int32:
		return 4
	case Uint64, Float64:
		return 8
	case Ptr:
		return unsafe.Sizeof(uintptr(0))
	case Bytes:
		return 1
	default:
		panic("layout: invalid kind")
	}
}

// align returns the natural C alignment of the type; arrays align as their
// element type.
func (t Type) align() uintptr {
	return t.elemSize()
}

func (t Type) size() uintptr {
	return t.elemSize() * uintptr(t.Count)
}

func (t Type) String() string {
	if t.Count == 1 && t.Kind != Bytes {
		return t.Kind.String()
	}
	return fmt.Sprintf("[%d]%s", t.Count, t.Kind)
}

// FieldSpec declares one field of a struct layout. Names must be unique
// within a resolved layout.
type FieldSpec struct {
	Name string
	Type Type
}

// Field is a resolved field: a FieldSpec placed at a fixed byte offset.
type Field struct {
	Name   string
	Type   Type
	Offset uintptr
}

// Layout is an immutable, materialized struct layout. It is built once per
// solver session and never re-inspected per field access; callers resolve
// Field handles up front and use those against a Block.
type Layout struct {
	fields []Field
	index  map[string]int
	size   uintptr
}

// New places fields at their natural C offsets. It fails on duplicate field
// names.
func New(specs []FieldSpec) (*Layout, error) {
	l := &Layout{
		fields: make([]Field, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}

	var offset, maxAlign uintptr = 0, 1
	for _, spec := range specs {
		if _, ok := l.index[spec.Name]; ok {
			return nil, fmt.Errorf("layout: duplicate field %q", spec.Name)
		}
		a := spec.Type.align()
		if a > maxAlign {
			maxAlign = a
		}
		offset = alignUp(offset, a)
		l.index[spec.Name] = len(l.fields)
		l.fields = append(l.fields, Field{Name: spec.Name, Type: spec.Type, Offset: offset})
		offset += spec.Type.size()
	}
	l.size = alignUp(offset, maxAlign)

	return l, nil
}

func alignUp(off, align uintptr) uintptr {
	return (off + align - 1) &^ (align - 1)
}

// Field returns the resolved field of the given name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Fields returns the resolved fields in declaration order. The returned
// slice must not be modified.
func (l *Layout) Fields() []Field {
	return l.fields
}

// Size returns the total struct size in bytes, padded to the layout's
// maximum alignment.
func (l *Layout) Size() uintptr {
	return l.size
}
