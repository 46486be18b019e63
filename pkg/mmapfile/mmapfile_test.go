package mmapfile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenAndReadAt(t *testing.T) {
	data := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, []byte("hello\x00")...)
	path := writeTempFile(t, data)

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Len() != len(data) {
		t.Fatalf("Len() = %d; want %d", f.Len(), len(data))
	}

	u32, err := f.Uint32(0, binary.BigEndian)
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("Uint32() = %#x, %v; want 0xDEADBEEF, nil", u32, err)
	}

	s, err := f.CString(4)
	if err != nil || s != "hello" {
		t.Fatalf("CString() = %q, %v; want hello, nil", s, err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("/nonexistent/path/does/not/exist")
	if err == nil {
		t.Fatal("expected error opening missing file")
	}
	var merr *Error
	if !asError(err, &merr) || merr.Kind != KindFileNotFound {
		t.Fatalf("expected KindFileNotFound, got %v", err)
	}
}

func TestRangeOutOfBounds(t *testing.T) {
	path := writeTempFile(t, []byte{1, 2, 3, 4})
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.Slice(2, 10); err == nil {
		t.Fatal("expected range_out_of_bounds error")
	}
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
