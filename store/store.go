// Package store persists conversation threads, uploaded images and the
// image-generation history as plain files under a data directory. Thread
// and record files are JSON; attachments and artifacts are raw bytes.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Logger is the subset of the application logger the stores need
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// nopLogger discards everything; used when no logger is supplied
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

func orNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}

// writeFileAtomic writes data to a temporary file in the target
// directory and renames it into place, so a reader never observes a
// half-written file
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
