// Package storage defines the flat note and page directory abstraction.
package storage

import "github.com/starford/zettpub/internal/models"

// Provider is the interface for operations on a single flat directory.
// Names are relative to the directory root.
type Provider interface {
	// List returns the regular files directly under the root whose name ends
	// in ext (every regular file when ext is empty), in name order.
	// Subdirectories are not descended into.
	List(ext string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically writes content to the named file.
	Write(name string, content []byte) error
	// Delete removes the named file.
	Delete(name string) error
	// Root returns the absolute directory path.
	Root() string
}
