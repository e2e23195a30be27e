package storage

import (
	"fmt"
	"sync"
)

// Ensure MemoryBackend implements Backend
var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps the serialized collection in memory. It is used for
// tests and dry runs, and can be told to fail reads or writes.
type MemoryBackend struct {
	mu       sync.Mutex
	data     []byte
	reads    int
	writes   int
	readErr  error
	writeErr error
}

// NewMemoryBackend creates a backend holding the given initial contents
func NewMemoryBackend(initial []byte) *MemoryBackend {
	return &MemoryBackend{data: cloneBytes(initial)}
}

// Location identifies the backend in log output
func (m *MemoryBackend) Location() string {
	return "memory"
}

// Read returns a copy of the stored bytes
func (m *MemoryBackend) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, m.readErr)
	}
	return cloneBytes(m.data), nil
}

// Write stores a copy of data
func (m *MemoryBackend) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.writeErr != nil {
		return fmt.Errorf("%w: %v", ErrIO, m.writeErr)
	}
	m.data = cloneBytes(data)
	return nil
}

// Data returns the last successfully written bytes
func (m *MemoryBackend) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneBytes(m.data)
}

// FailReads makes subsequent reads return err (nil restores normal reads)
func (m *MemoryBackend) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes subsequent writes return err (nil restores normal writes)
func (m *MemoryBackend) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Reads returns how many times Read was called
func (m *MemoryBackend) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns how many times Write was called
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
