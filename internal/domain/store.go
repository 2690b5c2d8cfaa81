package domain

// PhotoStore handles the local photo list cache (BoltDB + memory).
// Reads fail soft: missing or corrupt data is reported as absent.
type PhotoStore interface {
	Load() ([]string, bool)
	Save(photos []string) error
	Clear() error

	Close() error
}
