package application

import (
	"sync"
	"time"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionCache = (*MemorySessionCache)(nil)

// MemorySessionCache is a mutex-guarded single-slot credential holder. Expiry
// is evaluated lazily on Get; a credential found inside the safety margin is
// dropped at that point rather than by a background timer.
type MemorySessionCache struct {
	mu   sync.Mutex
	cred *model.Credential
	now  func() time.Time
}

// NewMemorySessionCache creates an empty cache. now may be nil, in which case
// time.Now is used.
func NewMemorySessionCache(now func() time.Time) *MemorySessionCache {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionCache{now: now}
}

// Get returns the held credential if it is usable now.
func (c *MemorySessionCache) Get() (model.Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred == nil {
		return model.Credential{}, false
	}
	if !c.cred.UsableAt(c.now()) {
		c.cred = nil
		return model.Credential{}, false
	}
	return *c.cred, true
}

// Set replaces the held credential.
func (c *MemorySessionCache) Set(cred model.Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = &cred
}

// Clear drops the held credential.
func (c *MemorySessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = nil
}
