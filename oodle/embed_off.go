//go:build !oodleembed

package oodle

// The vendor license disallows redistributing the library inside this
// repository, so the default build carries no image and expects the
// file to already sit beside the executable. Build with -tags
// oodleembed after dropping the library into this directory to embed
// it the way release builds do.
var libraryBytes []byte
