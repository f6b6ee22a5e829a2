package frame

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSplitExactMultiple(t *testing.T) {
	buf := make([]byte, 3*Size)
	for i := range buf {
		buf[i] = byte(i)
	}
	var got []Frame
	for f := range Split(buf) {
		got = append(got, f)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got))
	}
	for i, f := range got {
		if f.Index != i {
			t.Fatalf("frame %d: index %d", i, f.Index)
		}
		if f.Offset != i*Size {
			t.Fatalf("frame %d: offset %d", i, f.Offset)
		}
		if !bytes.Equal(f.Data[:], buf[i*Size:(i+1)*Size]) {
			t.Fatalf("frame %d: data mismatch", i)
		}
	}
}

func TestSplitDropsRemainder(t *testing.T) {
	for _, n := range []int{0, 1, 15, 17, 31, 47} {
		buf := bytes.Repeat([]byte{0xAB}, n)
		count := 0
		covered := 0
		for f := range Split(buf) {
			count++
			covered = f.Offset + Size
		}
		if count != Count(buf) {
			t.Fatalf("len %d: got %d frames, Count says %d", n, count, Count(buf))
		}
		if len(buf)-covered != Remainder(buf) {
			t.Fatalf("len %d: uncovered %d bytes, Remainder says %d", n, len(buf)-covered, Remainder(buf))
		}
	}
}

func TestSplitRestartable(t *testing.T) {
	buf := make([]byte, 2*Size+5)
	seq := Split(buf)
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Fatalf("expected 2 frames on each pass, got %d and %d", first, second)
	}
}

func TestSplitStopsEarly(t *testing.T) {
	buf := make([]byte, 4*Size)
	seen := 0
	for range Split(buf) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("expected to stop after 2, saw %d", seen)
	}
}

func TestFrameIsACopy(t *testing.T) {
	buf := make([]byte, Size)
	var f Frame
	for f = range Split(buf) {
	}
	buf[0] = 0xFF
	if f.Data[0] != 0 {
		t.Fatalf("frame aliases the input buffer")
	}
}

func TestTagBigEndian(t *testing.T) {
	raw := decodeHex(t, "2021000000000000000000000000FFFF")
	f, err := FromBytes(0, raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if f.Tag() != 0x2021 {
		t.Fatalf("unexpected tag %s", f.Tag())
	}
	if f.Tag().String() != "0x2021" {
		t.Fatalf("unexpected tag string %q", f.Tag().String())
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	if _, err := FromBytes(0, make([]byte, Size-1)); err == nil {
		t.Fatalf("expected error for short frame")
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}
