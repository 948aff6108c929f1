package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no object exists under the requested name
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for storage operations
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ObjectName joins path segments with "/" the way blob names are laid out
func ObjectName(parts ...string) string {
	return strings.Join(parts, "/")
}
