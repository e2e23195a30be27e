package storage

import "github.com/ipconfiger/ipconfiger/pkg/types"

// Serializer encodes and decodes an ordered sequence of records. Both
// directions fail with ErrSerialization on malformed input.
type Serializer[T any] interface {
	Serialize(records []T) ([]byte, error)
	Deserialize(data []byte) ([]T, error)
	Format() Format
}

// Backend is the durable location a store reads from and rewrites in full.
type Backend interface {
	// Read returns the stored bytes, or nil with no error when nothing has
	// been written yet.
	Read() ([]byte, error)
	// Write replaces the stored bytes.
	Write(data []byte) error
	// Location describes where the data lives, for logs and messages.
	Location() string
}

// ProfileStoreInterface defines the operations callers use on a store of one
// profile kind
type ProfileStoreInterface[T types.Record[T]] interface {
	List() []T
	Get(name string) (T, bool)
	Add(record T) error
	Update(record T) error
	Delete(name string) error
	Export() ([]byte, error)
	Import(data []byte) (ImportResult, error)
	Names() []string
	Exists(name string) bool
}
