package oodle

import "github.com/ebitengine/purego"

// libraryName is the vendor's versioned soname on Linux.
const libraryName = "liboo2corelinux64.so.9"

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
