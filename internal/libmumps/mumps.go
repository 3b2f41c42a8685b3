//go:build mumps

package libmumps

/*
#cgo LDFLAGS: -ldmumps -lzmumps -lmumps_common

// The real prototypes take typed struct pointers; at the C ABI level a
// void * argument is identical, which is what lets one Go entry type drive
// every struct version.
extern void dmumps_c(void *);
extern void zmumps_c(void *);

static void gomumps_dmumps(void *p) { dmumps_c(p); }
static void gomumps_zmumps(void *p) { zmumps_c(p); }
*/
import "C"

import "unsafe"

const HasMumps = true

// Real returns the double-precision real entry point (dmumps_c).
func Real() (Entry, error) {
	return func(p unsafe.Pointer) { C.gomumps_dmumps(p) }, nil
}

// Complex returns the double-precision complex entry point (zmumps_c).
func Complex() (Entry, error) {
	return func(p unsafe.Pointer) { C.gomumps_zmumps(p) }, nil
}
