package oracle

import (
	"errors"
	"sync"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

var (
	ErrOracleNotRegistered = errors.New("oracle feed: oracle not registered")
	ErrInvalidAmount       = errors.New("oracle feed: invalid submission")

	ErrNotAuthorized  = nativecommon.ErrNotAuthorized
	ErrContractPaused = nativecommon.ErrModulePaused
)

// initialCredibility is assigned to every newly registered oracle.
const initialCredibility = 100

// Oracle tracks an authorised price-submitting identity.
type Oracle struct {
	Address          crypto.Address
	Active           bool
	TotalSubmissions uint64
	CredibilityScore uint64
}

// Clone returns a copy of the oracle record.
func (o *Oracle) Clone() *Oracle {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// Registry owns the set of authorised oracles. Entries are created only by
// the administrator and never deleted.
type Registry struct {
	mu      sync.RWMutex
	admin   crypto.Address
	oracles map[string]*Oracle
}

// NewRegistry constructs a registry gated on the administrator identity.
func NewRegistry(admin crypto.Address) *Registry {
	return &Registry{admin: admin, oracles: make(map[string]*Oracle)}
}

func oracleKey(addr crypto.Address) string {
	return string(addr.Prefix()) + "/" + string(addr.Bytes())
}

// Register authorises the oracle identity. Re-registering an existing
// entry reactivates it and preserves its submission counters.
func (r *Registry) Register(caller, oracleID crypto.Address) error {
	if r == nil {
		return ErrNotAuthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !caller.Equal(r.admin) {
		return ErrNotAuthorized
	}
	if existing, ok := r.oracles[oracleKey(oracleID)]; ok {
		existing.Active = true
		return nil
	}
	r.oracles[oracleKey(oracleID)] = &Oracle{
		Address:          oracleID,
		Active:           true,
		CredibilityScore: initialCredibility,
	}
	return nil
}

// IsActive reports whether the oracle is registered and active.
func (r *Registry) IsActive(oracleID crypto.Address) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.oracles[oracleKey(oracleID)]
	return ok && entry.Active
}

// Get returns a copy of the oracle record, or nil when unknown.
func (r *Registry) Get(oracleID crypto.Address) *Oracle {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.oracles[oracleKey(oracleID)].Clone()
}

// RecordSubmission bumps the oracle's accepted-submission counter. The
// feed calls this only after a submission passes every gate.
func (r *Registry) RecordSubmission(oracleID crypto.Address) error {
	if r == nil {
		return ErrOracleNotRegistered
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.oracles[oracleKey(oracleID)]
	if !ok {
		return ErrOracleNotRegistered
	}
	entry.TotalSubmissions++
	return nil
}
