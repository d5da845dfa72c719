package synth

import (
	"math/big"
	"sync"

	"synthvault/crypto"
)

// engineState is the persistence surface the engine mutates. Positions,
// global totals and liquidation history are owned exclusively by the
// engine; implementations must hand out copies, never shared references.
type engineState interface {
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(pos *Position) error
	GetGlobal() (*GlobalState, error)
	PutGlobal(global *GlobalState) error
	AppendLiquidation(record *LiquidationRecord) error
	ListLiquidations() ([]*LiquidationRecord, error)
}

// MemoryState is the in-process state container. Durability and
// replication live behind external substrates; the engine only requires
// the copy-on-read transactional contract implemented here.
type MemoryState struct {
	mu           sync.RWMutex
	positions    map[string]*Position
	global       *GlobalState
	liquidations []*LiquidationRecord
}

// NewMemoryState constructs an empty state container with zeroed totals.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		positions: make(map[string]*Position),
		global: &GlobalState{
			TotalCollateral:      big.NewInt(0),
			TotalSyntheticSupply: big.NewInt(0),
		},
	}
}

func positionKey(addr crypto.Address) string {
	return string(addr.Prefix()) + "/" + string(addr.Bytes())
}

// GetPosition returns a copy of the stored position, or nil when the
// account has never opened one.
func (s *MemoryState) GetPosition(addr crypto.Address) (*Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[positionKey(addr)]
	if !ok {
		return nil, nil
	}
	return pos.Clone(), nil
}

// PutPosition stores a copy of the position keyed by its address.
func (s *MemoryState) PutPosition(pos *Position) error {
	if pos == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[positionKey(pos.Address)] = pos.Clone()
	return nil
}

// GetGlobal returns a copy of the global totals.
func (s *MemoryState) GetGlobal() (*GlobalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global.Clone(), nil
}

// PutGlobal stores a copy of the global totals.
func (s *MemoryState) PutGlobal(global *GlobalState) error {
	if global == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = global.Clone()
	return nil
}

// AppendLiquidation records an immutable copy of the liquidation entry.
func (s *MemoryState) AppendLiquidation(record *LiquidationRecord) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liquidations = append(s.liquidations, record.Clone())
	return nil
}

// ListLiquidations returns copies of the liquidation history in append
// order.
func (s *MemoryState) ListLiquidations() ([]*LiquidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LiquidationRecord, 0, len(s.liquidations))
	for _, record := range s.liquidations {
		out = append(out, record.Clone())
	}
	return out, nil
}

// SumPositions adds up the stored per-position collateral and debt. It
// exists for reconciliation checks against the global totals.
func (s *MemoryState) SumPositions() (collateral, debt *big.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collateral = big.NewInt(0)
	debt = big.NewInt(0)
	for _, pos := range s.positions {
		if pos.CollateralDeposited != nil {
			collateral.Add(collateral, pos.CollateralDeposited)
		}
		if pos.SyntheticMinted != nil {
			debt.Add(debt, pos.SyntheticMinted)
		}
	}
	return collateral, debt
}
