package simdscan

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestFindNullBoundaries(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want int
	}{
		{"empty", nil, -1},
		{"null-at-0", []byte{0}, 0},
		{"null-at-end", []byte{'a', 'b', 'c', 0}, 3},
		{"null-absent", []byte{'a', 'b', 'c'}, -1},
		{"null-straddles-word", append(bytes.Repeat([]byte{'x'}, 7), 0, 'y'), 7},
		{"null-straddles-word-later", append(bytes.Repeat([]byte{'x'}, 9), 0), 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindNull(tc.buf, 0); got != tc.want {
				t.Errorf("FindNull() = %d; want %d", got, tc.want)
			}
		})
	}
}

// TestEquivalenceWithNaive is the property test required by the spec: for
// every byte array and start index, simd and naive scans must agree.
func TestEquivalenceWithNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 500; trial++ {
		n := rng.Intn(40)
		buf := make([]byte, n)
		for i := range buf {
			b := byte(rng.Intn(255) + 1) // avoid 0 most of the time
			if rng.Intn(10) == 0 {
				b = 0
			}
			buf[i] = b
		}
		start := 0
		if n > 0 {
			start = rng.Intn(n + 1)
		}
		got := FindNull(buf, start)
		want := FindNullNaive(buf, start)
		if got != want {
			t.Fatalf("mismatch on %v start=%d: simd=%d naive=%d", buf, start, got, want)
		}
	}
}

func TestCStringZeroCopy(t *testing.T) {
	buf := []byte("hello\x00world")
	s, ok := CString(buf, 0)
	if !ok || s != "hello" {
		t.Fatalf("CString() = %q, %v; want hello, true", s, ok)
	}
	if _, ok := CString(buf, 100); ok {
		t.Fatal("CString() should fail for out-of-range offset")
	}
}

func BenchmarkFindNullSIMD(b *testing.B) {
	buf := append(bytes.Repeat([]byte{'x'}, 4095), 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindNull(buf, 0)
	}
}

func BenchmarkFindNullNaive(b *testing.B) {
	buf := append(bytes.Repeat([]byte{'x'}, 4095), 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindNullNaive(buf, 0)
	}
}
