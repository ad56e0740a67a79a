package bitstream

import (
	"fmt"
	"math"
)

// Reader is the symmetric read side of Writer: a buffered, bit-granular
// source. It performs an initial refill on construction and tops up
// the buffer whenever EndAtom leaves less than one atom's worth of
// unread data.
//
// Any read past end-of-stream, a VBR continuation chain exceeding the
// permitted group count, or any other malformed input sets a sticky
// Error and fatally ends the current decode. Reader never panics;
// callers check Err() before trusting a value.
type Reader struct {
	source Source
	buf    []byte
	filled int // buf[:filled] holds valid, unread-or-partially-read data

	byteIndex int
	bitOffset uint

	err error
}

// NewReader wraps source and performs the initial refill.
func NewReader(source Source) *Reader {
	r := &Reader{source: source, buf: make([]byte, DefaultBufferMultiplier*MaxAtomSize)}
	r.refill()
	return r
}

// Err returns the sticky decode error, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// refill slides any unread tail down to index 0 and tops the buffer
// back up from the source.
func (r *Reader) refill() {
	if r.err != nil {
		return
	}
	tail := r.filled - r.byteIndex
	if tail > 0 {
		copy(r.buf, r.buf[r.byteIndex:r.filled])
	}
	r.byteIndex = 0
	r.filled = tail

	n, err := r.source.ReadData(r.buf[r.filled:])
	if err != nil {
		r.fail(fmt.Errorf("bitstream: source read failed: %w", err))
		return
	}
	r.filled += n
}

// Empty reports whether the source is exhausted and the buffer drained.
func (r *Reader) Empty() bool {
	if r.err != nil {
		return false
	}
	if r.byteIndex >= r.filled && r.bitOffset == 0 {
		r.refill()
	}
	return r.err == nil && r.byteIndex >= r.filled && r.bitOffset == 0
}

// ReadBits reads nbits (0..64), LSB-first, matching Writer.WriteBits.
func (r *Reader) ReadBits(nbits int) uint64 {
	if r.err != nil {
		return 0
	}
	if nbits < 0 || nbits > 64 {
		r.fail(fmt.Errorf("bitstream: ReadBits nbits=%d out of range", nbits))
		return 0
	}
	var v uint64
	var shift uint
	remaining := nbits
	for remaining > 0 {
		if r.byteIndex >= r.filled {
			r.fail(fmt.Errorf("bitstream: read past end of stream"))
			return 0
		}
		bitsLeft := 8 - int(r.bitOffset)
		n := remaining
		if n > bitsLeft {
			n = bitsLeft
		}
		mask := uint64(1)<<uint(n) - 1
		chunk := (uint64(r.buf[r.byteIndex]) >> r.bitOffset) & mask
		v |= chunk << shift
		shift += uint(n)
		r.bitOffset += uint(n)
		remaining -= n
		if r.bitOffset == 8 {
			r.bitOffset = 0
			r.byteIndex++
		}
	}
	return v
}

func (r *Reader) ReadBits32(nbits int) uint32 { return uint32(r.ReadBits(nbits)) }

func (r *Reader) ReadBool() bool { return r.ReadBits(1) != 0 }

// Unsigned 16/32/64 are VBR-encoded, mirroring the writer; uint8 and
// the signed widths are raw fixed-width bits.
func (r *Reader) ReadUInt8() uint8   { return uint8(r.ReadBits(8)) }
func (r *Reader) ReadUInt16() uint16 { return uint16(r.ReadVBR32()) }
func (r *Reader) ReadUInt32() uint32 { return r.ReadVBR32() }
func (r *Reader) ReadUInt64() uint64 { return r.ReadVBR64() }

func (r *Reader) ReadInt8() int8   { return int8(r.ReadBits(8)) }
func (r *Reader) ReadInt16() int16 { return int16(r.ReadBits(16)) }
func (r *Reader) ReadInt32() int32 { return int32(r.ReadBits(32)) }
func (r *Reader) ReadInt64() int64 { return int64(r.ReadBits(64)) }

// ReadFloat and ReadDouble consume the fixed-width IEEE-754 bit
// pattern, never VBR.
func (r *Reader) ReadFloat() float32 {
	return math.Float32frombits(uint32(r.ReadBits(32)))
}

func (r *Reader) ReadDouble() float64 {
	return math.Float64frombits(r.ReadBits(64))
}

// ReadVBR32 decodes a VBR-encoded uint32, accepting up to 5 groups.
func (r *Reader) ReadVBR32() uint32 {
	var v uint32
	for i := 0; i < 5; i++ {
		cont := r.ReadBool()
		if r.err != nil {
			return 0
		}
		group := r.ReadBits32(7)
		v |= group << uint(7*i)
		if !cont {
			return v
		}
	}
	r.fail(fmt.Errorf("bitstream: VBR32 continuation chain exceeded 5 groups"))
	return 0
}

// ReadVBR64 decodes a VBR-encoded uint64, accepting up to 10 groups.
func (r *Reader) ReadVBR64() uint64 {
	var v uint64
	for i := 0; i < 10; i++ {
		cont := r.ReadBool()
		if r.err != nil {
			return 0
		}
		group := r.ReadBits(7)
		v |= group << uint(7*i)
		if !cont {
			return v
		}
	}
	r.fail(fmt.Errorf("bitstream: VBR64 continuation chain exceeded 10 groups"))
	return 0
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = r.ReadUInt8()
		if r.err != nil {
			return nil
		}
	}
	return p
}

// ReadString decodes a VBR32 length prefix followed by that many raw
// bytes, copying them into a NUL-terminated buffer obtained from the
// source's arena.
func (r *Reader) ReadString() string {
	n := r.ReadVBR32()
	if r.err != nil {
		return ""
	}
	buf := r.source.AllocStringData(int(n))
	for i := 0; i < int(n); i++ {
		buf[i] = r.ReadUInt8()
		if r.err != nil {
			return ""
		}
	}
	buf[n] = 0
	return string(buf[:n])
}

// PeekBits reads nbits without consuming them, used by pkg/codec to
// look one opcode ahead when deciding whether an annotation list has
// ended.
func (r *Reader) PeekBits(nbits int) uint64 {
	savedByte, savedBit, savedErr := r.byteIndex, r.bitOffset, r.err
	v := r.ReadBits(nbits)
	r.byteIndex, r.bitOffset, r.err = savedByte, savedBit, savedErr
	return v
}

// EndAtom advances to the next atom boundary: if fewer than
// MaxAtomSize unread bytes remain buffered, refill from the source.
// It does not itself advance the bit cursor — atoms are bit-contiguous
// and the cursor already sits exactly where the next atom begins.
func (r *Reader) EndAtom() {
	if r.err != nil {
		return
	}
	if r.filled-r.byteIndex < MaxAtomSize {
		r.refill()
	}
}
