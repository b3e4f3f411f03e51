package owner

import (
	"context"
	"sync"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
)

// Directory resolves owner references against the system that actually holds
// owner records. The compliance core consumes it; it never writes owners.
type Directory interface {
	// Contact returns the notification address for an owner.
	Contact(ctx context.Context, ref id.OwnerRef) (string, error)
}

// InMemoryDirectory is a Directory for tests and single-node development.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	contacts map[id.OwnerRef]string
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{contacts: make(map[id.OwnerRef]string)}
}

// SetContact registers or replaces the contact address for an owner.
func (d *InMemoryDirectory) SetContact(ref id.OwnerRef, address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[ref] = address
}

func (d *InMemoryDirectory) Contact(_ context.Context, ref id.OwnerRef) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	addr, ok := d.contacts[ref]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return addr, nil
}
