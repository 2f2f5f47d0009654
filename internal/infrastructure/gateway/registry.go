package gateway

import (
	"sync"

	domain "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// Registry сопоставляет имя шлюза с адаптером.
type Registry struct {
	mu       sync.RWMutex
	adapters map[valueobject.Gateway]domain.Gateway
}

func NewRegistry(adapters ...domain.Gateway) *Registry {
	r := &Registry{adapters: make(map[valueobject.Gateway]domain.Gateway)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(adapter domain.Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Name()] = adapter
}

func (r *Registry) Get(name valueobject.Gateway) (domain.Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[name]
	if !ok {
		return nil, apperror.ErrUnknownGateway
	}
	return adapter, nil
}

var _ domain.Resolver = (*Registry)(nil)
