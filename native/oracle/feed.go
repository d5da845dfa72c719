package oracle

import (
	"math/big"
	"sync"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

const moduleName = "oracle"

// PriceSubmission is an append-only record of one accepted price report.
// Submissions are keyed by (asset, ID); the ID nonce is monotonic across
// the whole feed, not per asset.
type PriceSubmission struct {
	ID         uint64
	Oracle     crypto.Address
	AssetID    string
	Price      *big.Int
	Confidence uint64
	Timestamp  uint64
}

// Clone returns a deep copy of the submission.
func (s *PriceSubmission) Clone() *PriceSubmission {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Price != nil {
		clone.Price = new(big.Int).Set(s.Price)
	}
	return &clone
}

// Feed validates and records oracle price submissions and owns the single
// authoritative current price. The asset dimension is retained for audit
// but does not partition the price signal: the last accepted submission
// wins regardless of asset.
type Feed struct {
	mu            sync.RWMutex
	registry      *Registry
	pauses        nativecommon.PauseView
	minConfidence uint64
	staleness     uint64

	submissions  []*PriceSubmission
	nextID       uint64
	currentPrice *big.Int
	lastUpdate   uint64
}

// NewFeed constructs a feed validating against the supplied registry with
// the given confidence floor (percent) and staleness window (blocks).
func NewFeed(registry *Registry, minConfidence, staleness uint64) *Feed {
	return &Feed{
		registry:      registry,
		minConfidence: minConfidence,
		staleness:     staleness,
	}
}

// SetPauses wires the administrative circuit breaker.
func (f *Feed) SetPauses(p nativecommon.PauseView) {
	if f == nil {
		return
	}
	f.pauses = p
}

// Submit validates and records a price report. Checks run in a fixed
// order and the first failure wins: registration, activity, pause,
// confidence floor, positive price. An accepted submission overwrites the
// authoritative current price and returns the assigned submission ID.
func (f *Feed) Submit(oracleID crypto.Address, assetID string, price *big.Int, confidence uint64, now uint64) (uint64, error) {
	if f == nil || f.registry == nil {
		return 0, ErrOracleNotRegistered
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := f.registry.Get(oracleID)
	if entry == nil {
		return 0, ErrOracleNotRegistered
	}
	if !entry.Active {
		return 0, ErrNotAuthorized
	}
	if err := nativecommon.Guard(f.pauses, moduleName); err != nil {
		return 0, err
	}
	if confidence < f.minConfidence {
		return 0, ErrInvalidAmount
	}
	if price == nil || price.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}

	// The counter bump is the last call that can fail; it runs before
	// anything is recorded so a refusal leaves no partial effects.
	if err := f.registry.RecordSubmission(oracleID); err != nil {
		return 0, err
	}

	f.nextID++
	submission := &PriceSubmission{
		ID:         f.nextID,
		Oracle:     oracleID,
		AssetID:    assetID,
		Price:      new(big.Int).Set(price),
		Confidence: confidence,
		Timestamp:  now,
	}
	f.submissions = append(f.submissions, submission)

	f.currentPrice = new(big.Int).Set(price)
	f.lastUpdate = now
	return submission.ID, nil
}

// IsFresh reports whether a price updated at lastUpdate is still inside
// the staleness window at the given block.
func (f *Feed) IsFresh(lastUpdate, now uint64) bool {
	if f == nil {
		return false
	}
	if now < lastUpdate {
		return true
	}
	return now-lastUpdate < f.staleness
}

// CurrentPrice returns the authoritative price and the block it was last
// updated. A nil price means no submission has ever been accepted.
func (f *Feed) CurrentPrice() (*big.Int, uint64) {
	if f == nil {
		return nil, 0
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.currentPrice == nil {
		return nil, f.lastUpdate
	}
	return new(big.Int).Set(f.currentPrice), f.lastUpdate
}

// Submissions returns copies of the accepted submissions in append order.
func (f *Feed) Submissions() []*PriceSubmission {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*PriceSubmission, 0, len(f.submissions))
	for _, submission := range f.submissions {
		out = append(out, submission.Clone())
	}
	return out
}
