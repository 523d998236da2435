package pakcore

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// pendingDeleteSuffix marks an artifact mid-removal. The rename out of
// the mountable name happens before the unlink, so a crash between the
// two leaves a file the engine will never mount.
const pendingDeleteSuffix = ".pending_delete"

// deleteQueueDepth bounds how many batches may wait on the worker.
const deleteQueueDepth = 64

// Deleter removes installed artifacts on a single background worker.
// Batches are processed in submission order; a queued batch cannot be
// cancelled.
type Deleter struct {
	jobs    chan []string
	results chan error
	done    chan struct{}
	logger  *slog.Logger
}

func newDeleter(logger *slog.Logger) *Deleter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &Deleter{
		jobs:    make(chan []string, deleteQueueDepth),
		results: make(chan error, deleteQueueDepth),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go d.run()
	return d
}

// Delete queues one batch of paths for removal. It does not wait for
// the removal; the outcome arrives on [Deleter.Results], one value per
// batch, nil on success.
func (d *Deleter) Delete(paths []string) {
	d.jobs <- paths
}

// Results reports batch outcomes in submission order. Each received
// value is the first error of its batch, or nil when every path was
// removed or already gone.
func (d *Deleter) Results() <-chan error {
	return d.results
}

func (d *Deleter) run() {
	defer close(d.done)
	for batch := range d.jobs {
		var first error
		for _, path := range batch {
			if err := d.deleteOne(path); err != nil {
				d.logger.Error("delete failed", "path", path, "error", err)
				if first == nil {
					first = err
				}
				continue
			}
			d.logger.Debug("deleted", "path", path)
		}
		d.results <- first
	}
}

// deleteOne renames path aside and unlinks it. A path that is already
// gone counts as removed: deletion is a statement about the desired
// end state, not about who got there first.
func (d *Deleter) deleteOne(path string) error {
	pending := path + pendingDeleteSuffix
	if err := os.Rename(path, pending); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Remove(pending); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// close stops the worker after draining queued batches.
func (d *Deleter) close() {
	close(d.jobs)
	<-d.done
	close(d.results)
}
