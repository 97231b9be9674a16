//go:build windows

package codepage

import "golang.org/x/sys/windows"

func current() (uint32, bool) {
	cp, err := windows.GetConsoleOutputCP()
	if err != nil || cp == 0 {
		return 0, false
	}
	return cp, true
}
