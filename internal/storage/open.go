package storage

import (
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// Open creates a file-backed store for one profile kind using the given
// serialization format.
func Open[T types.Record[T]](kind types.Kind, path string, format Format, opts ...Option) (*ConfigStore[T], error) {
	serializer, err := NewSerializer[T](format)
	if err != nil {
		return nil, err
	}
	return NewConfigStore[T](kind, NewFileBackend(path), serializer, opts...)
}

// OpenNetworkStore opens the network profile store at path
func OpenNetworkStore(path string, format Format, opts ...Option) (*ConfigStore[types.NetworkProfile], error) {
	return Open[types.NetworkProfile](types.KindNetwork, path, format, opts...)
}

// OpenProxyStore opens the proxy profile store at path
func OpenProxyStore(path string, format Format, opts ...Option) (*ConfigStore[types.ProxyProfile], error) {
	return Open[types.ProxyProfile](types.KindProxy, path, format, opts...)
}
