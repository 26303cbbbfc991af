// Package blob defines the key-value port the expense store persists through.
// A blob is the whole serialized collection stored under a single key.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing has been stored under key.
var ErrNotFound = errors.New("blob not found")

// Ports for outbound adapters.
type (
	Reader interface {
		Get(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Put replaces the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
	}

	Store interface {
		Reader
		Writer
	}
)
