package kvstore

// Store is the persistence boundary for platform state. Each key names one
// independent JSON-encoded record. Implementations must treat a missing key
// as absent data, not an error.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
