package packet

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortPacket is latched by a Reader when a field runs past the end of
// the payload. Callers check Err() after the last field and must abort the
// message instead of acting on partially-decoded state.
var ErrShortPacket = errors.New("packet: field extends past end of payload")

// ErrVarintOverflow is latched when a varint runs longer than 10 bytes.
var ErrVarintOverflow = errors.New("packet: varint overflows 64 bits")

// Reader decodes message fields from a payload. Byte 0 is always the
// opcode. Once an error is latched every subsequent read returns the zero
// value, so decoders can read a full fixed-order record and check Err()
// exactly once.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 1} // skip opcode byte
}

// NewRecordReader decodes a bare record with no opcode byte, e.g. an
// archive field embedded in another message.
func NewRecordReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// Err returns the first decode error, or nil if every read so far was in
// bounds.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.off = len(r.data)
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.err != nil || r.off >= len(r.data) {
		r.fail(ErrShortPacket)
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.err != nil || r.off+2 > len(r.data) {
		r.fail(ErrShortPacket)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	if r.err != nil || r.off+4 > len(r.data) {
		r.fail(ErrShortPacket)
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadQ reads 8 bytes as little-endian uint64.
func (r *Reader) ReadQ() uint64 {
	if r.err != nil || r.off+8 > len(r.data) {
		r.fail(ErrShortPacket)
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// ReadF reads 4 bytes as a little-endian float32.
func (r *Reader) ReadF() float32 {
	if r.err != nil || r.off+4 > len(r.data) {
		r.fail(ErrShortPacket)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadVarUint reads an unsigned base-128 varint.
func (r *Reader) ReadVarUint() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	var shift uint
	for {
		if r.off >= len(r.data) {
			r.fail(ErrShortPacket)
			return 0
		}
		b := r.data[r.off]
		r.off++
		if shift == 63 && b > 1 {
			r.fail(ErrVarintOverflow)
			return 0
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v
		}
		shift += 7
		if shift > 63 {
			r.fail(ErrVarintOverflow)
			return 0
		}
	}
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.err != nil || n < 0 || r.off+n > len(r.data) {
		r.fail(ErrShortPacket)
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// ReadBlob reads a varint length prefix followed by that many raw bytes.
func (r *Reader) ReadBlob() []byte {
	n := r.ReadVarUint()
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.data)-r.off) {
		r.fail(ErrShortPacket)
		return nil
	}
	return r.ReadBytes(int(n))
}

// ReadS reads a null-terminated UTF-8 string.
func (r *Reader) ReadS() string {
	if r.err != nil {
		return ""
	}
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := string(r.data[start:r.off])
			r.off++ // skip terminator
			return s
		}
		r.off++
	}
	r.fail(ErrShortPacket)
	return ""
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
