package bytecursor

import (
	"encoding/binary"
	"testing"
)

func TestReadSequential(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	c := New(buf)

	b, err := c.ReadU8()
	if err != nil || b != 0x01 {
		t.Fatalf("ReadU8() = %v, %v; want 0x01, nil", b, err)
	}

	u16, err := c.ReadU16(binary.LittleEndian)
	if err != nil || u16 != 0x0302 {
		t.Fatalf("ReadU16() = %#x, %v; want 0x0302, nil", u16, err)
	}

	u32, err := c.ReadU32(binary.LittleEndian)
	if err != nil || u32 != binary.LittleEndian.Uint32(buf[3:7]) {
		t.Fatalf("ReadU32() = %#x, %v", u32, err)
	}
}

func TestReadPastEndFails(t *testing.T) {
	c := New([]byte{0x01, 0x02})
	if _, err := c.ReadU32(binary.LittleEndian); err == nil {
		t.Fatal("expected out-of-bounds error reading u32 from a 2-byte buffer")
	}
	// No partial consumption: position must not have moved.
	if c.Pos() != 0 {
		t.Fatalf("Pos() = %d after failed read; want 0 (no partial reads)", c.Pos())
	}
}

func TestCStringBoundaries(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		off  int
		want string
		ok   bool
	}{
		{"empty", []byte{0x00}, 0, "", true},
		{"null-at-0", []byte{0x00, 'a'}, 0, "", true},
		{"null-at-end", []byte{'a', 'b', 0x00}, 0, "ab", true},
		{"null-absent", []byte{'a', 'b', 'c'}, 0, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.buf)
			got, err := c.CStringAt(tc.off)
			if tc.ok && (err != nil || got != tc.want) {
				t.Fatalf("CStringAt(%d) = %q, %v; want %q, nil", tc.off, got, err, tc.want)
			}
			if !tc.ok && err == nil {
				t.Fatalf("CStringAt(%d) = %q, nil; want an error", tc.off, got)
			}
		})
	}
}

func TestSeekIsValueSemantics(t *testing.T) {
	c := New([]byte{1, 2, 3, 4})
	c2, err := c.Seek(2)
	if err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 0 {
		t.Fatalf("original cursor mutated by Seek: Pos() = %d", c.Pos())
	}
	if c2.Pos() != 2 {
		t.Fatalf("Seek(2).Pos() = %d; want 2", c2.Pos())
	}
}

func TestSliceZeroCopy(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	c := New(buf)
	s, err := c.Slice(3)
	if err != nil {
		t.Fatal(err)
	}
	s[0] = 0xFF
	if buf[0] != 0xFF {
		t.Fatal("Slice did not alias the backing array")
	}
}
