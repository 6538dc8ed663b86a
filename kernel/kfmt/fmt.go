// Package kfmt provides formatted output primitives that are safe to use at
// any point after boot: no call in this package allocates memory. Output
// produced before a sink is attached via SetOutputSink lands in a bounded
// ring buffer and is replayed once a sink becomes available.
package kfmt

import "io"

// numBufSize is large enough for a 64-bit value in any supported base plus
// padding.
const numBufSize = 32

var (
	badVerb    = []byte("%!(NOVERB)")
	badArgType = []byte("%!(WRONGTYPE)")
	missingArg = []byte("%!(MISSING)")
	extraArg   = []byte("%!(EXTRA)")

	// emitBuf is the shared single-byte scratch used to write string data
	// without triggering a string-to-slice conversion (which allocates).
	emitBuf = []byte{0}

	numBuf [numBufSize]byte

	earlyOut earlyBuffer

	// sink is the io.Writer that receives Printf output. While nil, all
	// output is redirected to earlyOut.
	sink io.Writer
)

// SetOutputSink attaches w as the target for Printf output and drains any
// bytes accumulated in the early buffer into it. A nil w detaches the current
// sink and sends subsequent output back to the early buffer.
func SetOutputSink(w io.Writer) {
	sink = w
	if w != nil {
		io.Copy(w, &earlyOut)
	}
}

// OutputSink returns the currently attached sink or nil if output is still
// being buffered.
func OutputSink() io.Writer {
	return sink
}

// Printf formats its arguments to the active output sink. The supported verb
// subset is %s (string or []byte), %d, %x, %o (all built-in integer types and
// uintptr), %t (bool) and %%. An optional decimal width before the verb pads
// %d with spaces and %x/%o with zeroes; %s is left-padded with spaces.
//
// Unlike fmt.Printf this function performs no allocations and may be called
// from interrupt handlers.
func Printf(format string, args ...interface{}) {
	Fprintf(sink, format, args...)
}

// Fprintf behaves like Printf but writes the formatted output to w. A nil w
// targets the early buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		i        int
	)

	for i < len(format) {
		ch := format[i]
		if ch != '%' {
			emitByte(w, ch)
			i++
			continue
		}

		// Scan the optional width and the verb.
		i++
		width := 0
		for ; i < len(format); i++ {
			ch = format[i]
			if ch >= '0' && ch <= '9' {
				width = width*10 + int(ch-'0')
				continue
			}
			break
		}

		if i == len(format) {
			emit(w, badVerb)
			break
		}

		if ch == '%' {
			emitByte(w, '%')
			i++
			continue
		}

		if ch != 's' && ch != 'd' && ch != 'x' && ch != 'o' && ch != 't' {
			emit(w, badVerb)
			i++
			continue
		}

		if argIndex >= len(args) {
			emit(w, missingArg)
			i++
			continue
		}

		arg := args[argIndex]
		argIndex++
		i++

		switch ch {
		case 's':
			emitString(w, arg, width)
		case 'd':
			emitInt(w, arg, 10, width)
		case 'x':
			emitInt(w, arg, 16, width)
		case 'o':
			emitInt(w, arg, 8, width)
		case 't':
			emitBool(w, arg)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		emit(w, extraArg)
	}
}

// emit writes p to w, falling back to the early buffer when w is nil.
func emit(w io.Writer, p []byte) {
	if w == nil {
		w = &earlyOut
	}
	w.Write(p)
}

// emitByte writes a single byte through the shared scratch buffer.
func emitByte(w io.Writer, ch byte) {
	emitBuf[0] = ch
	emit(w, emitBuf)
}

func emitPad(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		emitByte(w, ch)
	}
}

func emitBool(w io.Writer, arg interface{}) {
	v, ok := arg.(bool)
	if !ok {
		emit(w, badArgType)
		return
	}
	if v {
		emitString(w, "true", 0)
	} else {
		emitString(w, "false", 0)
	}
}

func emitString(w io.Writer, arg interface{}, width int) {
	switch v := arg.(type) {
	case string:
		emitPad(w, ' ', width-len(v))
		// A string-to-[]byte conversion allocates, so the bytes go out
		// one at a time through the scratch buffer.
		for i := 0; i < len(v); i++ {
			emitByte(w, v[i])
		}
	case []byte:
		emitPad(w, ' ', width-len(v))
		emit(w, v)
	default:
		emit(w, badArgType)
	}
}

// emitInt formats any built-in integer value in the requested base. Base 10
// output is space-padded, base 8 and 16 output is zero-padded.
func emitInt(w io.Writer, arg interface{}, base uint64, width int) {
	var (
		uval     uint64
		negative bool
	)

	switch v := arg.(type) {
	case uint8:
		uval = uint64(v)
	case uint16:
		uval = uint64(v)
	case uint32:
		uval = uint64(v)
	case uint64:
		uval = v
	case uint:
		uval = uint64(v)
	case uintptr:
		uval = uint64(v)
	case int8:
		uval, negative = absToUint64(int64(v))
	case int16:
		uval, negative = absToUint64(int64(v))
	case int32:
		uval, negative = absToUint64(int64(v))
	case int64:
		uval, negative = absToUint64(v)
	case int:
		uval, negative = absToUint64(int64(v))
	default:
		emit(w, badArgType)
		return
	}

	if width >= numBufSize {
		width = numBufSize - 1
	}

	// Render digits right to left into numBuf.
	pos := numBufSize
	for {
		pos--
		digit := uval % base
		if digit < 10 {
			numBuf[pos] = '0' + byte(digit)
		} else {
			numBuf[pos] = 'a' + byte(digit-10)
		}
		uval /= base
		if uval == 0 {
			break
		}
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	if negative {
		if padCh == ' ' {
			emitPad(w, padCh, width-(numBufSize-pos)-1)
			emitByte(w, '-')
		} else {
			emitByte(w, '-')
			emitPad(w, padCh, width-(numBufSize-pos)-1)
		}
	} else {
		emitPad(w, padCh, width-(numBufSize-pos))
	}

	emit(w, numBuf[pos:])
}

func absToUint64(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}
