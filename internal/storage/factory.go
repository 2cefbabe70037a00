package storage

import "fmt"

// NewStore builds a backend by kind. path is the sqlite database file or the
// root directory of the dir backend.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "dir":
		return NewDirStore(path), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
