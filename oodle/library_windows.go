package oodle

import "golang.org/x/sys/windows"

const libraryName = "oo2core_9_win64.dll"

func openLibrary(path string) (uintptr, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}
