package frame

import (
	"encoding/binary"
	"fmt"
	"iter"
)

// Size is the fixed length of every frame on the wire.
const Size = 16

// SyncTag identifies the signal format of a frame. It is read big-endian
// from the first two bytes.
type SyncTag uint16

// String renders the tag the way it is written in format tables.
func (t SyncTag) String() string {
	return fmt.Sprintf("0x%04X", uint16(t))
}

// Frame is a 16-byte window copied out of the input buffer. Index is the
// ordinal position in the stream and Offset the byte offset it was taken from.
type Frame struct {
	Index  int
	Offset int
	Data   [Size]byte
}

// Tag returns the frame's sync word.
func (f Frame) Tag() SyncTag {
	return SyncTag(binary.BigEndian.Uint16(f.Data[0:2]))
}

// Bytes returns a copy of the frame contents.
func (f Frame) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, f.Data[:])
	return out
}

// Split yields consecutive frames at offsets 0, 16, 32, ... while a full
// window remains. A trailing remainder shorter than Size is dropped. The
// sequence can be ranged over any number of times.
func Split(buf []byte) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for i, off := 0, 0; off+Size <= len(buf); i, off = i+1, off+Size {
			f := Frame{Index: i, Offset: off}
			copy(f.Data[:], buf[off:off+Size])
			if !yield(f) {
				return
			}
		}
	}
}

// Count returns how many complete frames buf holds.
func Count(buf []byte) int {
	return len(buf) / Size
}

// Remainder returns how many trailing bytes Split drops.
func Remainder(buf []byte) int {
	return len(buf) % Size
}

// FromBytes builds a single frame from raw, which must be exactly Size bytes.
func FromBytes(index int, raw []byte) (Frame, error) {
	if len(raw) != Size {
		return Frame{}, fmt.Errorf("frame must be %d bytes, got %d", Size, len(raw))
	}
	f := Frame{Index: index, Offset: index * Size}
	copy(f.Data[:], raw)
	return f, nil
}
