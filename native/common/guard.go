package common

import (
	"errors"
	"sync"

	"synthvault/crypto"
)

var (
	ErrModulePaused  = errors.New("module paused")
	ErrNotAuthorized = errors.New("caller not authorized")
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseRegistry is the administrative circuit breaker. Pausing halts every
// state-mutating operation across all modules; queries stay available.
type PauseRegistry struct {
	mu     sync.RWMutex
	admin  crypto.Address
	paused bool
}

// NewPauseRegistry constructs a registry gated on the administrator identity.
func NewPauseRegistry(admin crypto.Address) *PauseRegistry {
	return &PauseRegistry{admin: admin}
}

// Pause halts all mutating operations. Only the administrator may call it.
func (r *PauseRegistry) Pause(caller crypto.Address) error {
	if r == nil {
		return ErrNotAuthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !caller.Equal(r.admin) {
		return ErrNotAuthorized
	}
	r.paused = true
	return nil
}

// Resume lifts the circuit breaker. Only the administrator may call it.
func (r *PauseRegistry) Resume(caller crypto.Address) error {
	if r == nil {
		return ErrNotAuthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !caller.Equal(r.admin) {
		return ErrNotAuthorized
	}
	r.paused = false
	return nil
}

// IsPaused implements PauseView. The breaker is global, so the module name is
// accepted for interface compatibility but does not partition the flag.
func (r *PauseRegistry) IsPaused(string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// Admin returns the configured administrator identity.
func (r *PauseRegistry) Admin() crypto.Address {
	if r == nil {
		return crypto.Address{}
	}
	return r.admin
}
