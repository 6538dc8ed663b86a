package kfmt

import (
	"bytes"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &PrefixWriter{Sink: &buf, Prefix: []byte("[mm] ")}

	writes := []string{
		"heap at ",
		"0x100000\n",
		"identity map ready\npaging on\n",
	}
	var total int
	for _, chunk := range writes {
		n, err := w.Write([]byte(chunk))
		if err != nil {
			t.Fatal(err)
		}
		total += n
	}

	exp := "[mm] heap at 0x100000\n[mm] identity map ready\n[mm] paging on\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected output:\n%q\ngot:\n%q", exp, got)
	}

	// Prefix bytes must not be counted as caller bytes.
	var expTotal int
	for _, chunk := range writes {
		expTotal += len(chunk)
	}
	if total != expTotal {
		t.Fatalf("expected write count %d; got %d", expTotal, total)
	}
}
