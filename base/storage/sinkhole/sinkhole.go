// Package sinkhole provides a storage that stores nothing. It is used when
// the configured storage is unavailable.
package sinkhole

import (
	"github.com/safing/rdapboot/base/storage"
)

// Sinkhole discards all writes and never finds anything.
type Sinkhole struct {
	name string
}

func init() {
	_ = storage.Register("sinkhole", NewSinkhole)
}

// NewSinkhole creates a sinkhole storage.
func NewSinkhole(name, _ string) (storage.Interface, error) {
	return &Sinkhole{name: name}, nil
}

// Get always returns storage.ErrNotFound.
func (s *Sinkhole) Get(_ string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

// Put discards the value.
func (s *Sinkhole) Put(_ string, _ []byte) error {
	return nil
}

// Delete does nothing.
func (s *Sinkhole) Delete(_ string) error {
	return nil
}

// Shutdown does nothing.
func (s *Sinkhole) Shutdown() error {
	return nil
}
