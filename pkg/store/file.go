package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gatecontrol-hq/gatecontrol/internal/fsutil"
)

// FileSnapshotter stores the aggregate as one indented JSON document.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter returns a snapshotter writing to path.
func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if path == "" {
		return nil, NewPersistError("file", "open", errors.New("path is required"))
	}
	return &FileSnapshotter{path: path}, nil
}

// Backend implements Snapshotter.
func (f *FileSnapshotter) Backend() string { return "file" }

// Path returns the snapshot file path.
func (f *FileSnapshotter) Path() string { return f.path }

// Load implements Snapshotter.
func (f *FileSnapshotter) Load(_ context.Context) (*Aggregate, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, NewPersistError("file", "load", err)
	}

	agg := NewAggregate()
	if err := json.Unmarshal(data, agg); err != nil {
		return nil, false, NewPersistError("file", "decode", err)
	}
	agg.normalize()
	return agg, true, nil
}

// Save implements Snapshotter.
func (f *FileSnapshotter) Save(_ context.Context, agg *Aggregate) error {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return NewPersistError("file", "encode", err)
	}
	if err := fsutil.WriteFileAtomic(f.path, data, 0o644); err != nil {
		return NewPersistError("file", "save", err)
	}
	return nil
}

// Ping implements Snapshotter. The snapshot must exist as a regular file and
// its directory must accept new files, which is what Save needs for the
// temp-and-rename step.
func (f *FileSnapshotter) Ping(_ context.Context) error {
	info, err := os.Stat(f.path)
	if err != nil {
		return NewPersistError("file", "ping", err)
	}
	if !info.Mode().IsRegular() {
		return NewPersistError("file", "ping", fmt.Errorf("%s is not a regular file", f.path))
	}
	if err := fsutil.CheckWritableDir(filepath.Dir(f.path)); err != nil {
		return NewPersistError("file", "ping", err)
	}
	return nil
}

// Close implements Snapshotter.
func (f *FileSnapshotter) Close() error { return nil }
