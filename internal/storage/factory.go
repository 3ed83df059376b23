package storage

import "fmt"

// NewStore maps a backend name to a Store. An empty kind selects the
// in-memory backend; sqlite needs the explicit kind plus the build tag.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	}
	return nil, fmt.Errorf("unknown store kind %q (want memory or sqlite)", kind)
}

// CloseIfSupported closes stores that hold external resources. The
// in-memory store has nothing to release and passes through.
func CloseIfSupported(s Store) error {
	if closer, ok := s.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
