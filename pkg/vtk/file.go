package vtk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
)

// Write encodes f to w using enc.
func Write(w io.Writer, f Frame, enc Encoding) error {
	if err := enc.Validate(); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeConsistency, err, "invalid frame")
	}
	if enc.Container == Legacy {
		return writeLegacy(w, f, enc)
	}
	return writeXML(w, f, enc)
}

// WriteFile writes f to path, creating parent directories. The file is written
// to a temporary sibling and renamed into place so readers never observe a
// partial dataset.
func WriteFile(path string, f Frame, enc Encoding) error {
	if err := enc.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, f, enc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// FileWriter writes frames to the local filesystem.
type FileWriter struct{}

// Write implements the dispatcher's writer contract by calling WriteFile.
func (FileWriter) Write(path string, f Frame, enc Encoding) error {
	return WriteFile(path, f, enc)
}
