package kfmt

import "io"

// PrefixWriter wraps an io.Writer and injects a prefix at the start of every
// line. The boot code uses it to tag each subsystem's output.
type PrefixWriter struct {
	// Sink receives all writes, including the injected prefixes.
	Sink io.Writer

	// Prefix is injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Write forwards p to the underlying sink, inserting the prefix after every
// newline. The returned count does not include the injected prefix bytes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for start := 0; start < len(p); {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		// Forward up to and including the next newline.
		end := len(p)
		for i := start; i < len(p); i++ {
			if p[i] == '\n' {
				end = i + 1
				w.midLine = false
				break
			}
		}

		n, err := w.Sink.Write(p[start:end])
		written += n
		if err != nil {
			return written, err
		}
		start = end
	}

	return written, nil
}
