// pattern: Imperative Shell

package update

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process is replacing the same executable.
var ErrLocked = errors.New("another update of this executable is in progress")

// lock takes an exclusive lock next to the executable so two concurrent
// updates cannot interleave their renames.
func lock(exe string) (*flock.Flock, error) {
	fl := flock.New(exe + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire update lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return fl, nil
}

// unlock releases the lock and removes the lock file.
func unlock(fl *flock.Flock) {
	if fl == nil {
		return
	}
	_ = fl.Unlock()
	_ = os.Remove(fl.Path())
}
