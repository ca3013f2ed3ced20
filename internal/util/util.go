//go:build !windows

package util

// IsRunFromGUI reports whether the process was started by double-clicking
// it rather than from a shell. Outside Windows this is always false.
func IsRunFromGUI() bool {
	return false
}
