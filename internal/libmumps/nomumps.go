//go:build !mumps

package libmumps

import "fmt"

const HasMumps = false

// Real returns the double-precision real entry point (dmumps_c).
func Real() (Entry, error) {
	return nil, fmt.Errorf("mumps library requested but program compiled without 'mumps' build tag")
}

// Complex returns the double-precision complex entry point (zmumps_c).
func Complex() (Entry, error) {
	return nil, fmt.Errorf("mumps library requested but program compiled without 'mumps' build tag")
}
