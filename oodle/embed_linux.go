//go:build linux && oodleembed

package oodle

import _ "embed"

//go:embed liboo2corelinux64.so.9
var libraryBytes []byte
