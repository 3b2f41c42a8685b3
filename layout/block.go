package layout

import (
	"fmt"
	"unsafe"
)

// Block is a raw memory region shaped by a Layout. Accessors take a resolved
// Field handle; using a Field from a different Layout, or an accessor of the
// wrong kind, is a programmer error and panics.
type Block struct {
	buf []byte
}

// NewBlock allocates a zeroed block of the layout's size.
func (l *Layout) NewBlock() *Block {
	return &Block{buf: make([]byte, l.size)}
}

// Wrap views an existing memory region of at least l.Size() bytes as a
// Block. The region is borrowed, not copied.
func (l *Layout) Wrap(p unsafe.Pointer) *Block {
	return &Block{buf: unsafe.Slice((*byte)(p), l.size)}
}

// Base returns the address of the block, suitable for the foreign call.
func (b *Block) Base() unsafe.Pointer {
	return unsafe.Pointer(&b.buf[0])
}

func (b *Block) at(f Field, kind Kind, i int) unsafe.Pointer {
	if f.Type.Kind != kind {
		panic(fmt.Sprintf("layout: field %q is %s, not %s", f.Name, f.Type.Kind, kind))
	}
	if i < 0 || i >= f.Type.Count {
		panic(fmt.Sprintf("layout: index %d out of range for field %q", i, f.Name))
	}
	return unsafe.Pointer(&b.buf[f.Offset+uintptr(i)*f.Type.elemSize()])
}

// Int32 reads a scalar int32 field.
func (b *Block) Int32(f Field) int32 {
	return *(*int32)(b.at(f, Int32, 0))
}

// SetInt32 writes a scalar int32 field.
func (b *Block) SetInt32(f Field, v int32) {
	*(*int32)(b.at(f, Int32, 0)) = v
}

// Int32At reads element i of an int32 array field.
func (b *Block) Int32At(f Field, i int) int32 {
	return *(*int32)(b.at(f, Int32, i))
}

// SetInt32At writes element i of an int32 array field.
func (b *Block) SetInt32At(f Field, i int, v int32) {
	*(*int32)(b.at(f, Int32, i)) = v
}

// Uint64 reads a scalar uint64 field.
func (b *Block) Uint64(f Field) uint64 {
	return *(*uint64)(b.at(f, Uint64, 0))
}

// SetUint64 writes a scalar uint64 field.
func (b *Block) SetUint64(f Field, v uint64) {
	*(*uint64)(b.at(f, Uint64, 0)) = v
}

// Float64At reads element i of a float64 array field.
func (b *Block) Float64At(f Field, i int) float64 {
	return *(*float64)(b.at(f, Float64, i))
}

// SetFloat64At writes element i of a float64 array field.
func (b *Block) SetFloat64At(f Field, i int, v float64) {
	*(*float64)(b.at(f, Float64, i)) = v
}

// Pointer reads a foreign pointer field.
func (b *Block) Pointer(f Field) unsafe.Pointer {
	return *(*unsafe.Pointer)(b.at(f, Ptr, 0))
}

// SetPointer writes a foreign pointer field. The block's byte buffer is
// opaque to the garbage collector; whoever stores a Go pointer here must
// keep the pointee reachable (and pinned under cgo) separately.
func (b *Block) SetPointer(f Field, p unsafe.Pointer) {
	*(*unsafe.Pointer)(b.at(f, Ptr, 0)) = p
}

// Bytes returns the backing storage of a Bytes field. The slice aliases the
// block.
func (b *Block) Bytes(f Field) []byte {
	if f.Type.Kind != Bytes {
		panic(fmt.Sprintf("layout: field %q is %s, not bytes", f.Name, f.Type.Kind))
	}
	return b.buf[f.Offset : f.Offset+uintptr(f.Type.Count)]
}

// SetString writes s NUL-terminated into a Bytes field, clearing the rest of
// the buffer. It fails if s does not fit.
func (b *Block) SetString(f Field, s string) error {
	buf := b.Bytes(f)
	if len(s) >= len(buf) {
		return fmt.Errorf("layout: string of length %d does not fit field %q of %d bytes", len(s), f.Name, len(buf))
	}
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}
