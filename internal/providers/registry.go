package providers

import (
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

// Registry resolves the adapter for a tenant's connected provider.
type Registry struct {
	adapters map[enums.Provider]Adapter
}

// NewRegistry indexes the given adapters by provider.
func NewRegistry(adapters ...Adapter) *Registry {
	indexed := make(map[enums.Provider]Adapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		indexed[adapter.Provider()] = adapter
	}
	return &Registry{adapters: indexed}
}

// For returns the adapter registered for the provider.
func (r *Registry) For(provider enums.Provider) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no adapter registered for provider "+provider.String())
	}
	return adapter, nil
}
