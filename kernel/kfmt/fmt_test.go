package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintfVerbs(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no verbs", nil, "no verbs"},
		{"literal %% percent", nil, "literal % percent"},
		{"%s and %s", []interface{}{"foo", []byte("bar")}, "foo and bar"},
		{"%8s|", []interface{}{"abc"}, "     abc|"},
		{"%d", []interface{}{42}, "42"},
		{"%d", []interface{}{-42}, "-42"},
		{"%5d|", []interface{}{123}, "  123|"},
		{"%5d|", []interface{}{-123}, " -123|"},
		{"%d", []interface{}{uint64(18446744073709551615)}, "18446744073709551615"},
		{"%x", []interface{}{uint32(0xbadf00d)}, "badf00d"},
		{"%16x", []interface{}{uint64(0xf00)}, "0000000000000f00"},
		{"%o", []interface{}{uint8(8)}, "10"},
		{"%4o|", []interface{}{uint8(8)}, "0010|"},
		{"%t %t", []interface{}{true, false}, "true false"},
		{"%x", []interface{}{uintptr(0xffff800000000000)}, "ffff800000000000"},
		{"%q", []interface{}{"x"}, "%!(NOVERB)%!(EXTRA)"},
		{"%d", []interface{}{"not a number"}, "%!(WRONGTYPE)"},
		{"%d %d", []interface{}{1}, "1 %!(MISSING)"},
		{"%d", []interface{}{1, 2}, "1%!(EXTRA)"},
		{"%t", []interface{}{"nope"}, "%!(WRONGTYPE)"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestEarlyBufferReplay(t *testing.T) {
	defer func() {
		SetOutputSink(nil)
		earlyOut = earlyBuffer{}
	}()

	SetOutputSink(nil)
	earlyOut = earlyBuffer{}

	Printf("early %d bytes", 512)

	var buf bytes.Buffer
	SetOutputSink(&buf)
	if got, exp := buf.String(), "early 512 bytes"; got != exp {
		t.Fatalf("expected replayed output %q; got %q", exp, got)
	}

	if OutputSink() != &buf {
		t.Fatal("expected OutputSink to return the attached writer")
	}

	// With a sink attached, output must bypass the early buffer.
	buf.Reset()
	Printf("direct")
	if got := buf.String(); got != "direct" {
		t.Fatalf("expected direct output; got %q", got)
	}
}

func TestEarlyBufferOverflow(t *testing.T) {
	var rb earlyBuffer
	for i := 0; i < earlyBufferSize+16; i++ {
		rb.Write([]byte{byte(i % 251)})
	}

	out := make([]byte, earlyBufferSize)
	n, err := rb.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != earlyBufferSize {
		t.Fatalf("expected a full buffer read; got %d bytes", n)
	}

	// The oldest 16 bytes were dropped; the first byte read back must be
	// the 17th byte written.
	if exp := byte(16 % 251); out[0] != exp {
		t.Fatalf("expected first byte %d; got %d", exp, out[0])
	}

	if _, err = rb.Read(out); err == nil {
		t.Fatal("expected EOF after draining the buffer")
	}
}
