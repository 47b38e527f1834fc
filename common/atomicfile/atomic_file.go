// Package atomicfile reads and writes files so that a reader never observes a partial write.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// WriteFile writes data to filename through a temp file in the same directory followed by a
// rename, which is atomic on POSIX filesystems. The target is either the old content or the
// new content, never a mix.
func WriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	// chmod on an open handle is not supported on Windows
	if runtime.GOOS != "windows" {
		if err = tmp.Chmod(perm); err != nil {
			return fmt.Errorf("setting permissions: %w", err)
		}
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	// Windows refuses to rename over an existing file
	if runtime.GOOS == "windows" {
		_ = os.Remove(filename)
	}
	return os.Rename(tmp.Name(), filename)
}

// ReadFile is the read counterpart of WriteFile. Because writes go through a rename, a plain
// read always sees a complete file.
func ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}
