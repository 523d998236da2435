//go:build windows && oodleembed

package oodle

import _ "embed"

//go:embed oo2core_9_win64.dll
var libraryBytes []byte
