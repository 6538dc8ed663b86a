package kfmt

import "io"

// earlyBufferSize defines the size of the buffer that captures Printf output
// generated before a sink is attached. It must be a power of 2.
const earlyBufferSize = 2048

// earlyBuffer is a byte ring that keeps the most recent output produced while
// no sink is attached. Once the buffer wraps, the oldest bytes are dropped.
type earlyBuffer struct {
	data  [earlyBufferSize]byte
	start int
	used  int
}

// Write appends p to the ring, discarding the oldest bytes on overflow.
func (b *earlyBuffer) Write(p []byte) (int, error) {
	for _, ch := range p {
		end := (b.start + b.used) & (earlyBufferSize - 1)
		b.data[end] = ch
		if b.used == earlyBufferSize {
			b.start = (b.start + 1) & (earlyBufferSize - 1)
		} else {
			b.used++
		}
	}

	return len(p), nil
}

// Read drains up to len(p) of the buffered bytes into p, oldest first.
func (b *earlyBuffer) Read(p []byte) (int, error) {
	if b.used == 0 {
		return 0, io.EOF
	}

	var n int
	for n < len(p) && b.used > 0 {
		p[n] = b.data[b.start]
		b.start = (b.start + 1) & (earlyBufferSize - 1)
		b.used--
		n++
	}

	return n, nil
}
