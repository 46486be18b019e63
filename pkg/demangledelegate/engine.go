package demangledelegate

import (
	"log"
	"os"
	"strings"
)

const (
	engineEnvVar      = "MACHOSCOPE_SWIFT_DELEGATE"
	debugEnvVar       = "MACHOSCOPE_SWIFT_DEBUG"
	engineModePureGo  = "purego"
	engineModeDarwin  = "darwin-cgo"
	engineModeProcess = "process-exec"
)

var (
	forceEngine   = strings.ToLower(os.Getenv(engineEnvVar))
	defaultEngine Delegate
	engineMode    string
)

func init() {
	defaultEngine, engineMode = newEngine()
	if forceEngine == engineModeProcess {
		defaultEngine, engineMode = NewProcessDelegate(""), engineModeProcess
	}
	if debug := os.Getenv(debugEnvVar); debug != "" {
		log.Printf("demangledelegate: using %s delegate", engineMode)
	}
}

// Delegate demangles Swift mangled names, following the swift_demangle_v1
// convention: given a mangled input it returns the fully formatted output,
// a simplified variant, or a type-only rendering depending on the method
// called. Implementations may be backed by the pure-Go demangler, Apple's
// libswiftDemangle.dylib via cgo, or an external demangler process.
type Delegate interface {
	Demangle(string) (string, error)
	DemangleSimple(string) (string, error)
	DemangleType(string) (string, error)
}

// EngineMode reports which delegate (pure-Go, darwin-cgo, or process-exec) is active.
func EngineMode() string {
	return engineMode
}
