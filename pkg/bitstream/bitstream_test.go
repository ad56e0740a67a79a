package bitstream

import (
	"testing"
)

func TestBitPackingRoundTrip(t *testing.T) {
	for n := 1; n <= 64; n++ {
		sink := NewByteSliceSink()
		w := NewWriter(sink)
		var v uint64
		if n == 64 {
			v = 0xFFFFFFFFFFFFFFFF
		} else {
			v = (uint64(1) << uint(n)) - 1
		}
		w.WriteBits(v, n)
		w.EndAtom()
		if err := w.Flush(); err != nil {
			t.Fatalf("n=%d: flush: %v", n, err)
		}

		r := NewReader(NewByteSliceSource(sink.Bytes()))
		got := r.ReadBits(n)
		if r.Err() != nil {
			t.Fatalf("n=%d: read: %v", n, r.Err())
		}
		if got != v {
			t.Errorf("n=%d: got %#x, want %#x", n, got, v)
		}
	}
}

func TestHeterogeneousSequence(t *testing.T) {
	widths := []int{1, 3, 6, 8, 13, 16, 32, 64, 5, 2}
	values := []uint64{1, 5, 0x3F, 0xAB, 0x1FFF, 0xBEEF, 0xDEADBEEF, 0x1122334455667788, 0, 3}

	sink := NewByteSliceSink()
	w := NewWriter(sink)
	for i, width := range widths {
		w.WriteBits(values[i], width)
	}
	w.EndAtom()
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	for i, width := range widths {
		got := r.ReadBits(width)
		if r.Err() != nil {
			t.Fatalf("index %d: read: %v", i, r.Err())
		}
		if got != values[i] {
			t.Errorf("index %d: got %#x, want %#x", i, got, values[i])
		}
	}
}

func TestVBR32BoundaryCases(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, (1 << 7) - 1, (1 << 14) - 1, 1 << 21, 1 << 28, (1 << 32) - 1}
	for _, v := range cases {
		sink := NewByteSliceSink()
		w := NewWriter(sink)
		w.WriteVBR32(v)
		w.EndAtom()
		if err := w.Flush(); err != nil {
			t.Fatalf("v=%d: flush: %v", v, err)
		}

		r := NewReader(NewByteSliceSource(sink.Bytes()))
		got := r.ReadVBR32()
		if r.Err() != nil {
			t.Fatalf("v=%d: read: %v", v, r.Err())
		}
		if got != v {
			t.Errorf("v=%d: got %d", v, got)
		}
	}
}

func TestVBR64BoundaryCases(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, (1 << 7) - 1, (1 << 14) - 1, 1 << 21, 1 << 28, (1 << 32) - 1, 1 << 56, 1 << 63, (1 << 64) - 1}
	for _, v := range cases {
		sink := NewByteSliceSink()
		w := NewWriter(sink)
		w.WriteVBR64(v)
		w.EndAtom()
		if err := w.Flush(); err != nil {
			t.Fatalf("v=%d: flush: %v", v, err)
		}

		r := NewReader(NewByteSliceSource(sink.Bytes()))
		got := r.ReadVBR64()
		if r.Err() != nil {
			t.Fatalf("v=%d: read: %v", v, r.Err())
		}
		if got != v {
			t.Errorf("v=%d: got %d", v, got)
		}
	}
}

// TestVBR32TwoGroups checks 0x0000_0080 encodes as two groups,
// (cont=1, 0x00) then (cont=0, 0x01).
func TestVBR32TwoGroups(t *testing.T) {
	sink := NewByteSliceSink()
	w := NewWriter(sink)
	w.WriteVBR32(0x80)
	w.EndAtom()
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	cont := r.ReadBool()
	group := r.ReadBits32(7)
	if !cont || group != 0x00 {
		t.Fatalf("first group: cont=%v group=%#x, want cont=true group=0x00", cont, group)
	}
	cont = r.ReadBool()
	group = r.ReadBits32(7)
	if cont || group != 0x01 {
		t.Fatalf("second group: cont=%v group=%#x, want cont=false group=0x01", cont, group)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "x", "hello, world", "unicode: éè"} {
		sink := NewByteSliceSink()
		w := NewWriter(sink)
		w.WriteString(s)
		w.EndAtom()
		if err := w.Flush(); err != nil {
			t.Fatal(err)
		}

		r := NewReader(NewByteSliceSource(sink.Bytes()))
		got := r.ReadString()
		if r.Err() != nil {
			t.Fatalf("read: %v", r.Err())
		}
		if got != s {
			t.Errorf("got %q, want %q", got, s)
		}
	}
}

func TestFloatDoubleRoundTrip(t *testing.T) {
	sink := NewByteSliceSink()
	w := NewWriter(sink)
	w.WriteFloat(3.14159)
	w.WriteDouble(2.718281828459045)
	w.EndAtom()
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	f := r.ReadFloat()
	d := r.ReadDouble()
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
	if f != float32(3.14159) {
		t.Errorf("float: got %v", f)
	}
	if d != 2.718281828459045 {
		t.Errorf("double: got %v", d)
	}
}

// TestAtomIndependence writes N independent atoms and checks each is
// recovered exactly, with no atom exceeding MaxAtomSize.
func TestAtomIndependence(t *testing.T) {
	sink := NewByteSliceSink()
	w := NewWriter(sink, WithBufferMultiplier(2))
	const n = 64
	for i := 0; i < n; i++ {
		w.WriteVBR32(uint32(i * 12345))
		w.WriteString("atom")
		w.EndAtom()
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	for i := 0; i < n; i++ {
		got := r.ReadVBR32()
		s := r.ReadString()
		if r.Err() != nil {
			t.Fatalf("atom %d: %v", i, r.Err())
		}
		if got != uint32(i*12345) || s != "atom" {
			t.Errorf("atom %d: got (%d,%q)", i, got, s)
		}
		r.EndAtom()
	}
	if !r.Empty() {
		t.Error("reader not empty after consuming every atom")
	}
}

func TestReadPastEndIsFatal(t *testing.T) {
	sink := NewByteSliceSink()
	w := NewWriter(sink)
	w.WriteUInt8(1)
	w.EndAtom()
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	r.ReadUInt64() // only one byte was written
	if r.Err() == nil {
		t.Fatal("expected a sticky error reading past end of stream")
	}
	// Failure is sticky: further reads report the same error, not a
	// fresh decode.
	before := r.Err()
	r.ReadBits(1)
	if r.Err() != before {
		t.Error("expected sticky error to remain unchanged")
	}
}

func TestPeekBitsDoesNotConsume(t *testing.T) {
	sink := NewByteSliceSink()
	w := NewWriter(sink)
	w.WriteBits(0x2A, 6)
	w.WriteBits(0x15, 6)
	w.EndAtom()
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(NewByteSliceSource(sink.Bytes()))
	peeked := r.PeekBits(6)
	if peeked != 0x2A {
		t.Fatalf("peek: got %#x, want 0x2A", peeked)
	}
	got := r.ReadBits(6)
	if got != 0x2A {
		t.Fatalf("read after peek: got %#x, want 0x2A", got)
	}
	got2 := r.ReadBits(6)
	if got2 != 0x15 {
		t.Fatalf("second read: got %#x, want 0x15", got2)
	}
}
