// Package fstree stores every key in its own file. Values are written to a
// temporary file first and then renamed over the destination, so readers
// never observe a partially written value.
package fstree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/safing/rdapboot/base/storage"
)

const (
	defaultDirMode  = 0o0755
	defaultFileMode = 0o0644
)

// FSTree stores values as files in a directory.
type FSTree struct {
	name     string
	basePath string
}

func init() {
	_ = storage.Register("fstree", NewFSTree)
}

// NewFSTree returns a file system tree storage rooted at location.
func NewFSTree(name, location string) (storage.Interface, error) {
	basePath, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("fstree: failed to validate path %s: %w", location, err)
	}

	err = os.MkdirAll(basePath, defaultDirMode)
	if err != nil {
		return nil, fmt.Errorf("fstree: failed to create storage directory %s: %w", basePath, err)
	}

	return &FSTree{
		name:     name,
		basePath: basePath,
	}, nil
}

func (fst *FSTree) buildFilePath(key string) (string, error) {
	if !storage.ValidKey(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return filepath.Join(fst.basePath, key), nil
}

// Get returns the value stored at key.
func (fst *FSTree) Get(key string) ([]byte, error) {
	dstPath, err := fst.buildFilePath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(dstPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("fstree: failed to read file %s: %w", dstPath, err)
	}
	return data, nil
}

// Put atomically replaces the value stored at key.
func (fst *FSTree) Put(key string, value []byte) error {
	dstPath, err := fst.buildFilePath(key)
	if err != nil {
		return err
	}

	err = writeFile(dstPath, value, defaultFileMode)
	if err != nil {
		return fmt.Errorf("fstree: could not write file %s: %w", dstPath, err)
	}
	return nil
}

// Delete removes the file of key.
func (fst *FSTree) Delete(key string) error {
	dstPath, err := fst.buildFilePath(key)
	if err != nil {
		return err
	}

	err = os.Remove(dstPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fstree: could not delete %s: %w", dstPath, err)
	}
	return nil
}

// Keys returns all keys present in the tree.
func (fst *FSTree) Keys() ([]string, error) {
	entries, err := os.ReadDir(fst.basePath)
	if err != nil {
		return nil, fmt.Errorf("fstree: failed to list %s: %w", fst.basePath, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		// Skip directories and temporary files.
		if entry.IsDir() || !storage.ValidKey(entry.Name()) {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

// Shutdown is a no-op, there are no open handles between calls.
func (fst *FSTree) Shutdown() error {
	return nil
}
