package storage

// Storage keeps the client's persisted key/value pairs.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key string, value string) error
	Remove(keys ...string) error
}
