//go:build !windows

package codepage

// Code pages only apply to Windows consoles.
func current() (uint32, bool) {
	return 0, false
}
