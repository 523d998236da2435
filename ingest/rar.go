package ingest

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

// extractRar unpacks the archive at src beneath dest. Entries that
// would escape dest are rejected.
func extractRar(src, dest string) error {
	r, err := rardecode.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, r)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
}
