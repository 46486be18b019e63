package demangledelegate

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeDemangler writes a tiny shell script that echoes each input line back
// reversed, standing in for a real swift-demangle binary so the batch
// line-protocol plumbing can be tested without depending on Xcode tools.
func fakeDemangler(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake demangler script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-swift-demangle")
	script := "#!/bin/sh\nwhile IFS= read -r line; do echo \"demangled:$line\"; done\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake demangler: %v", err)
	}
	return path
}

func TestProcessDelegateBatchLineProtocol(t *testing.T) {
	path := fakeDemangler(t)
	d := NewProcessDelegate(path)

	out, err := d.(*processDelegate).DemangleBatch([]string{"$s3foo3barV", "$s3baz"})
	if err != nil {
		t.Fatalf("DemangleBatch: %v", err)
	}
	want := []string{"demangled:$s3foo3barV", "demangled:$s3baz"}
	if len(out) != len(want) || out[0] != want[0] || out[1] != want[1] {
		t.Fatalf("DemangleBatch = %v, want %v", out, want)
	}
}

func TestProcessDelegateSingleDemangle(t *testing.T) {
	path := fakeDemangler(t)
	d := NewProcessDelegate(path)

	out, err := d.Demangle("$s3foo3barV")
	if err != nil {
		t.Fatalf("Demangle: %v", err)
	}
	if want := "demangled:$s3foo3barV"; out != want {
		t.Fatalf("Demangle = %q, want %q", out, want)
	}
}

func TestProcessDelegateMissingBinaryErrors(t *testing.T) {
	d := NewProcessDelegate(filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := d.Demangle("$s3foo3barV"); err == nil {
		t.Fatalf("expected error for missing demangler binary")
	}
}
