//go:build !darwin || !cgo

package demangledelegate

// newEngine selects the pure-Go delegate on any platform lacking Apple's
// libswiftDemangle.dylib (i.e. not built with darwin+cgo).
func newEngine() (Delegate, string) {
	return newPureGoEngine(), engineModePureGo
}
