package servicetitan

import (
	"strings"
	"sync"

	"attachments-api/config"
)

// Registry caches one Client per configured tenant.
type Registry struct {
	cfg     *config.Config
	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:     cfg,
		clients: make(map[string]*Client),
	}
}

// ForTenant returns the client for tenant, creating it on first use.
func (r *Registry) ForTenant(tenant string) (*Client, error) {
	key := strings.ToLower(tenant)

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err := NewClient(r.cfg, key)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client

	return client, nil
}
