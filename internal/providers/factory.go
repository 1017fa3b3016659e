package providers

import (
	"fmt"
	"time"

	"leadharvest/internal/config"
	"leadharvest/pkg/models"
)

// Registry resolves a provider enum to its adapter.
type Registry struct {
	adapters map[models.Provider]Adapter
}

// NewRegistry builds the adapter set from configuration. Vendors with an
// empty endpoint are left unregistered and submissions to them fail fast.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{adapters: make(map[models.Provider]Adapter)}

	register := func(baseURL, apiKey string, build func(string, string, time.Duration) Adapter) {
		if baseURL == "" {
			return
		}
		a := build(baseURL, apiKey, cfg.ProviderTimeout)
		r.adapters[a.Name()] = a
	}

	register(cfg.ProfileNetworkURL, cfg.ProfileNetworkKey, NewProfileNetworkAdapter)
	register(cfg.ProfessionalNetworkURL, cfg.ProfessionalNetworkKey, NewProfessionalNetworkAdapter)
	register(cfg.PostSearchURL, cfg.PostSearchKey, NewPostSearchAdapter)
	register(cfg.MicroBlogURL, cfg.MicroBlogKey, NewMicroBlogAdapter)

	return r
}

// NewRegistryFromAdapters wires an explicit adapter set. Used by tests and by
// callers that stub vendors.
func NewRegistryFromAdapters(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Provider]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Names lists the registered providers.
func (r *Registry) Names() []models.Provider {
	names := make([]models.Provider, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// Get returns the adapter for a provider.
func (r *Registry) Get(provider models.Provider) (Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	return a, nil
}
