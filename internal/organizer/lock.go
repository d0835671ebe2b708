package organizer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"jellyzam/internal/services"
	"jellyzam/internal/textutil"
)

// ErrBasePathBusy reports that another organization run holds the base path.
var ErrBasePathBusy = errors.New("base path is being organized by another run")

// BasePathLock is an exclusive, process-wide claim on one base path.
type BasePathLock struct {
	path string
	lock *flock.Flock
}

// Path returns the lock file location.
func (l *BasePathLock) Path() string { return l.path }

// Unlock releases the claim.
func (l *BasePathLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// LockBasePath claims basePath for one organization run. A second claim on
// the same base path, from this or another process, fails with
// ErrBasePathBusy until Unlock is called. An empty basePath (organize in
// place) shares a single lock.
func (e *Engine) LockBasePath(basePath string) (*BasePathLock, error) {
	dir := e.lockDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "create lock dir", dir, err)
	}
	path := filepath.Join(dir, lockFileName(basePath))
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire base path lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBasePathBusy, basePath)
	}
	return &BasePathLock{path: path, lock: lock}, nil
}

// lockFileName keys the lock on the absolute base path; the readable prefix
// only helps when inspecting the lock directory.
func lockFileName(basePath string) string {
	if strings.TrimSpace(basePath) == "" {
		return "organize-in-place.lock"
	}
	clean := filepath.Clean(basePath)
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	sum := sha256.Sum256([]byte(clean))
	return fmt.Sprintf("organize-%s-%s.lock", textutil.SanitizeToken(filepath.Base(clean)), hex.EncodeToString(sum[:8]))
}
