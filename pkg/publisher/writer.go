package publisher

import (
	"context"
	"errors"
	"path/filepath"

	"gatecontrol-hq/gatecontrol/internal/fsutil"
)

// ArtifactWriter stores the serialized configuration of an environment.
type ArtifactWriter interface {
	// Path returns where the artifact of envID lives.
	Path(envID string) string
	// Write replaces the artifact atomically.
	Write(ctx context.Context, envID string, data []byte) error
}

// FileWriter writes <root>/<envID>/<fileName>.
type FileWriter struct {
	root     string
	fileName string
}

// NewFileWriter creates a FileWriter.
func NewFileWriter(root, fileName string) *FileWriter {
	if fileName == "" {
		fileName = "ocelot.json"
	}
	return &FileWriter{root: root, fileName: fileName}
}

// Root returns the publish root directory.
func (w *FileWriter) Root() string { return w.root }

// FileName returns the artifact file name.
func (w *FileWriter) FileName() string { return w.fileName }

// Path implements ArtifactWriter.
func (w *FileWriter) Path(envID string) string {
	return filepath.Join(w.root, envID, w.fileName)
}

// Write implements ArtifactWriter. The temporary file is created in the
// environment directory so the final rename never crosses filesystems.
func (w *FileWriter) Write(_ context.Context, envID string, data []byte) error {
	if envID == "" || envID != filepath.Base(envID) || envID == "." || envID == ".." {
		return errors.New("invalid environment id for publish path")
	}
	return fsutil.WriteFileAtomic(w.Path(envID), data, 0o644)
}
