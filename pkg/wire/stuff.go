package wire

// Packet size limits in bytes.
const (
	MaxPayloadSize      = 16
	MaxPacketLen        = MaxPayloadSize + 8
	MaxStuffedPacketLen = MaxPacketLen + MaxPacketLen>>1
)

// Terminator marks the end of a packet.
const (
	Terminator     uint16 = 0xFFFF
	TerminatorByte byte   = 0xFF
)

// a complement bit is inserted after this many identical bits.
const stuffRun = 5

type bitWriter struct {
	buf []byte
	n   int
}

// put appends one bit, buf must be zeroed.
func (w *bitWriter) put(bit byte) {
	if bit != 0 {
		w.buf[w.n>>3] |= 0x80 >> uint(w.n&7)
	}
	w.n++
}

func (w *bitWriter) alignWord() {
	w.n = (w.n + 15) &^ 15
}

func (w *bitWriter) putWord(v uint16) {
	w.buf[w.n>>3], w.buf[w.n>>3+1] = byte(v>>8), byte(v)
	w.n += 16
}

func resetBuffer(buf []byte, size int) []byte {
	if cap(buf) < size {
		return make([]byte, size)
	}
	buf = buf[:size]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Stuff bit-stuffs the unstuffed packet src into dst, reusing dst when it is
// large enough. Scanning stops at the terminator word. The result is in wire
// byte order: stuffed bits, zero padding up to a word boundary, then the
// terminator. The number of stuffed bits before padding is also returned.
func Stuff(dst []byte, src []uint16) ([]byte, int) {
	w := bitWriter{buf: resetBuffer(dst, MaxStuffedPacketLen)}
	run, last := 1, byte(2)
	for i := 0; i < len(src) && i < MaxPacketLen>>1 && src[i] != Terminator; i++ {
		word := src[i]
		for k := 15; k >= 0; k-- {
			bit := byte(word>>uint(k)) & 1
			if bit == last {
				run++
			} else {
				run = 1
			}
			last = bit
			w.put(bit)
			if run == stuffRun {
				last ^= 1
				w.put(last)
				run = 1
			}
		}
	}
	bits := w.n
	w.alignWord()
	w.putWord(Terminator)
	return w.buf[:w.n>>3], bits
}

// Unstuff removes bit stuffing from src into dst, reusing dst when it is
// large enough. Decoding stops at the first terminator byte or after
// MaxStuffedPacketLen bytes. A trailing partial byte is zero filled.
func Unstuff(dst []byte, src []byte) []byte {
	w := bitWriter{buf: resetBuffer(dst, MaxStuffedPacketLen)}
	run, last := 0, byte(2)
	for pos := 0; ; pos++ {
		idx := pos >> 3
		if idx >= len(src) || idx >= MaxStuffedPacketLen || src[idx] == TerminatorByte {
			break
		}
		bit := (src[idx] >> uint(7-pos&7)) & 1
		if bit == last {
			run++
		} else {
			run = 1
		}
		last = bit
		w.put(bit)
		if run == stuffRun {
			// the next bit is the inserted complement.
			pos++
			run, last = 1, bit^1
		}
	}
	return w.buf[:(w.n+7)>>3]
}
