// Package transfer performs the file operation that lands a source file
// at its (possibly reclassified) destination.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Mode selects how a file reaches its destination.
type Mode string

const (
	ModeMove    Mode = "move"
	ModeCopy    Mode = "copy"
	ModeLink    Mode = "link"
	ModeSymlink Mode = "symlink"
)

// ErrExists is returned when the destination already exists.
var ErrExists = errors.New("destination already exists")

// ParseMode validates a configured transfer mode.
func ParseMode(value string) (Mode, error) {
	switch m := Mode(value); m {
	case ModeMove, ModeCopy, ModeLink, ModeSymlink:
		return m, nil
	default:
		return "", fmt.Errorf("unknown transfer mode %q", value)
	}
}

// Transfer places sourcePath at targetPath using mode. Parent directories
// are created as needed; an existing target is never overwritten.
func Transfer(mode Mode, sourcePath, targetPath string) error {
	if filepath.Clean(sourcePath) == filepath.Clean(targetPath) {
		return nil
	}
	if _, err := os.Lstat(targetPath); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, targetPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	switch mode {
	case ModeMove:
		return moveFile(sourcePath, targetPath)
	case ModeCopy:
		return copyFile(sourcePath, targetPath)
	case ModeLink:
		if err := os.Link(sourcePath, targetPath); err != nil {
			return fmt.Errorf("hard link: %w", err)
		}
		return nil
	case ModeSymlink:
		abs, err := filepath.Abs(sourcePath)
		if err != nil {
			return fmt.Errorf("resolve source: %w", err)
		}
		if err := os.Symlink(abs, targetPath); err != nil {
			return fmt.Errorf("symlink: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown transfer mode %q", mode)
	}
}

func moveFile(sourcePath, targetPath string) error {
	if err := os.Rename(sourcePath, targetPath); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if err := copyFile(sourcePath, targetPath); err != nil {
				return fmt.Errorf("copy file across devices: %w", err)
			}
			if err := os.Remove(sourcePath); err != nil {
				return fmt.Errorf("remove source after copy: %w", err)
			}
			return nil
		}
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

// copyFile writes to a temporary sibling and renames it into place so a
// failed copy never leaves a truncated file at the destination.
func copyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(targetPath), "."+filepath.Base(targetPath)+".*.part")
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	written, err := io.Copy(tmp, source)
	if err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("copy data: %w", err)
	}
	if written != info.Size() {
		tmp.Close()
		cleanup()
		return fmt.Errorf("copy data: wrote %d of %d bytes", written, info.Size())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync destination: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close destination: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		cleanup()
		return fmt.Errorf("chmod destination: %w", err)
	}
	if err := os.Rename(tmpPath, targetPath); err != nil {
		cleanup()
		return fmt.Errorf("finalize destination: %w", err)
	}
	return nil
}
