package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"jellyzam/internal/fileutil"
)

// errTargetTaken reports that another file appeared at the target between
// planning and moving. The engine re-probes when it sees it.
var errTargetTaken = errors.New("target already exists")

// linkUnsupported lists link(2) failures that mean the filesystem cannot hard
// link, so a rename is attempted instead.
var linkUnsupported = []error{
	syscall.EPERM,
	syscall.ENOTSUP,
	syscall.EOPNOTSUPP,
	syscall.EMLINK,
	syscall.ENOSYS,
}

// moveNoClobber moves sourcePath to targetPath without ever replacing an
// existing target. It links then unlinks the source; across devices it makes
// a verified copy first. The source is only removed once the target holds the
// full content.
func moveNoClobber(sourcePath, targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	err := os.Link(sourcePath, targetPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrExist):
		return errTargetTaken
	case errors.Is(err, syscall.EXDEV):
		if err := fileutil.CopyFileVerified(sourcePath, targetPath); err != nil {
			if errors.Is(err, os.ErrExist) {
				return errTargetTaken
			}
			return fmt.Errorf("copy file across devices: %w", err)
		}
	case isLinkUnsupported(err):
		return renameNoClobber(sourcePath, targetPath)
	default:
		return fmt.Errorf("link into place: %w", err)
	}
	if err := os.Remove(sourcePath); err != nil {
		return fmt.Errorf("remove source after move: %w", err)
	}
	return nil
}

// renameNoClobber is the fallback for filesystems without hard links. The
// existence check and the rename are not atomic; the base-path lock keeps
// other organizer runs out of the window.
func renameNoClobber(sourcePath, targetPath string) error {
	taken, err := fileutil.Exists(targetPath)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if taken {
		return errTargetTaken
	}
	if err := os.Rename(sourcePath, targetPath); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func isLinkUnsupported(err error) bool {
	for _, target := range linkUnsupported {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
