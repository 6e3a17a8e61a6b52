package connector

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
)

// Factory builds an unconnected Connector for one backend. Construction
// validates the profile but performs no I/O; the caller decides when to
// Connect. A nil logger is replaced with a no-op logger by the backend.
type Factory func(profile Profile, logger *zap.Logger) (Connector, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[dialect.Kind]Factory)
)

// Register is called by each backend package's init function. Thread-safe
// for concurrent init calls.
func Register(kind dialect.Kind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// New builds a Connector for the kind, or returns
// apperrors.ErrUnsupportedBackend before any connection attempt when the
// kind has no registered backend (typically a missing blank import of
// pkg/connector/all).
func New(kind dialect.Kind, profile Profile, logger *zap.Logger) (Connector, error) {
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedBackend, kind)
	}
	return factory(profile, logger)
}

// Kinds returns the registered backends in canonical dialect order.
func Kinds() []dialect.Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]dialect.Kind, 0, len(registry))
	for _, k := range dialect.Kinds() {
		if _, ok := registry[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// IsRegistered reports whether a backend is available for the kind.
func IsRegistered(kind dialect.Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}
