package repository

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store selected by backend. The file backend keeps its
// histories under dataDir; the sqlite backend uses the database at
// sqlitePath.
func Open(ctx context.Context, backend, dataDir, sqlitePath string, opts ...Option) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dataDir, opts...)
	case BackendSQLite:
		return OpenSQLite(ctx, sqlitePath, opts...)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrUnavailable, backend)
}
