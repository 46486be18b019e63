// Package logctx gives recovered, non-fatal parse errors a single place to
// land, matching the teacher's occasional log.Printf("found NEW ...")
// convention in file.go but keyed to the machoerr.Kind taxonomy so callers
// can tell a one-off curiosity from a section the driver skipped.
package logctx

import (
	"log"

	"github.com/appsworld/machoscope/pkg/machoerr"
)

// Recovered logs a non-fatal error the driver chose to skip rather than
// abort on, in the "one line per recovered error, prefixed by the
// offending section/address" form spec §7 requires of stderr output.
func Recovered(err error) {
	if err == nil {
		return
	}
	log.Printf("recovered: %v", err)
}

// RecoveredKind is Recovered for callers that already have the kind split
// out from the wrapped error, avoiding an extra type assertion at call sites
// inside the section walkers.
func RecoveredKind(kind machoerr.Kind, section string, addr uint64, err error) {
	Recovered(machoerr.New(kind, section, addr, err))
}
