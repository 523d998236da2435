package oodle

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// registerFunc binds a resolved symbol to fptr. RegisterLibFunc
// panics on lookup failure, so the panic is converted into an error
// the one-shot initializer can cache.
func registerFunc(fptr any, handle uintptr, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oodle: resolve %s: %v", name, r)
		}
	}()
	purego.RegisterLibFunc(fptr, handle, name)
	return nil
}
