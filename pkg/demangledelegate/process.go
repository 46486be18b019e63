package demangledelegate

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// defaultProcessPath is the binary NewProcessDelegate execs when given an
// empty path, matching where Xcode's command-line tools install it.
const defaultProcessPath = "swift-demangle"

// processDelegate demangles by shelling out to an external demangler binary
// that reads one mangled name per line on stdin and writes one demangled
// name per line on stdout, the protocol swift-demangle itself implements.
type processDelegate struct {
	path string
}

// NewProcessDelegate returns a Delegate backed by an external demangler
// process. If path is empty, "swift-demangle" is resolved from $PATH.
// Every call execs the process fresh; callers demangling many names should
// use DemangleBatch to amortize the process-start cost over one invocation.
func NewProcessDelegate(path string) Delegate {
	if path == "" {
		path = defaultProcessPath
	}
	return &processDelegate{path: path}
}

func (d *processDelegate) Demangle(input string) (string, error) {
	out, err := d.DemangleBatch([]string{input})
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (d *processDelegate) DemangleSimple(input string) (string, error) {
	out, err := d.demangleBatchWithFlag([]string{input}, "-simplified")
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (d *processDelegate) DemangleType(input string) (string, error) {
	return d.Demangle(input)
}

// DemangleBatch demangles many names in a single process invocation,
// writing one name per line to the child's stdin and reading one
// demangled name per line back from stdout.
func (d *processDelegate) DemangleBatch(names []string) ([]string, error) {
	return d.demangleBatchWithFlag(names, "")
}

func (d *processDelegate) demangleBatchWithFlag(names []string, flag string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	args := []string{}
	if flag != "" {
		args = append(args, flag)
	}
	cmd := exec.Command(d.path, args...)
	cmd.Stdin = strings.NewReader(strings.Join(names, "\n") + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("demangledelegate: %s: %w: %s", d.path, err, stderr.String())
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != len(names) {
		return nil, fmt.Errorf("demangledelegate: %s returned %d lines for %d inputs", d.path, len(lines), len(names))
	}
	return lines, nil
}
