package synth

import (
	"math/big"
	"sync"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

const moduleName = "synth"

// PriceView exposes the authoritative oracle price to the engine. A zero
// lastUpdate with a nil price means no submission has ever been accepted.
type PriceView interface {
	CurrentPrice() (price *big.Int, lastUpdate uint64)
}

// TransferLedger is the external value-movement substrate. Transfers are
// atomic from the engine's viewpoint; a failure aborts the calling
// operation before any state is persisted.
type TransferLedger interface {
	Transfer(amount *big.Int, from, to crypto.Address) error
}

// Engine orchestrates the collateral/debt state transitions: deposits,
// minting, liquidation and diversified position management. All mutating
// operations are serialised through a single writer lock; validation runs
// to completion before any persistence call, so a failed operation leaves
// no partial effects.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	pauses  nativecommon.PauseView
	prices  PriceView
	ledger  TransferLedger
	custody crypto.Address
	params  RiskParameters
}

// NewEngine constructs an engine bound to the protocol custody account and
// risk limits. State, pauses, prices and the transfer ledger are wired via
// the setters before first use.
func NewEngine(custody crypto.Address, params RiskParameters) *Engine {
	return &Engine{custody: custody, params: params.Normalise()}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the administrative circuit breaker.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetPriceSource wires the oracle price feed consulted by mint and
// liquidation paths.
func (e *Engine) SetPriceSource(prices PriceView) {
	if e == nil {
		return
	}
	e.prices = prices
}

// SetLedger wires the external transfer capability used to pay
// liquidation rewards out of protocol custody.
func (e *Engine) SetLedger(ledger TransferLedger) {
	if e == nil {
		return
	}
	e.ledger = ledger
}

// Params returns the active risk limits.
func (e *Engine) Params() RiskParameters {
	if e == nil {
		return RiskParameters{}
	}
	return e.params
}

// Deposit locks collateral for the account, creating the position on first
// use. Debt and stored health are untouched.
func (e *Engine) Deposit(account crypto.Address, amount *big.Int, now uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pos, err := e.ensurePosition(account)
	if err != nil {
		return err
	}
	global, err := e.loadGlobal()
	if err != nil {
		return err
	}

	pos.CollateralDeposited = new(big.Int).Add(pos.CollateralDeposited, amount)
	pos.LastInteractionBlock = now
	global.TotalCollateral = new(big.Int).Add(global.TotalCollateral, amount)

	if err := e.state.PutPosition(pos); err != nil {
		return err
	}
	return e.state.PutGlobal(global)
}

// Mint issues synthetic debt against the account's collateral. The gross
// amount is added to the position and the global supply; the returned
// value is the amount credited to the caller after the minting fee.
func (e *Engine) Mint(account crypto.Address, amount *big.Int, now uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, err := e.state.GetPosition(account)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, ErrPositionNotFound
	}
	normalisePosition(pos)

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	// The cooldown blunts same-block price-manipulation mints.
	if now < pos.LastInteractionBlock || now-pos.LastInteractionBlock < e.params.CooldownBlocks {
		return nil, ErrInvalidAmount
	}

	price, err := e.freshPrice(now)
	if err != nil {
		return nil, err
	}

	maxMintable, err := MaxMintable(pos.CollateralDeposited, price, e.params.MinCollateralRatio)
	if err != nil {
		return nil, err
	}
	projected := new(big.Int).Add(pos.SyntheticMinted, amount)
	if projected.Cmp(maxMintable) > 0 {
		return nil, ErrInsufficientCollateral
	}

	health, err := HealthRatio(pos.CollateralDeposited, projected, price)
	if err != nil {
		return nil, err
	}

	fee := bpsOf(amount, e.params.MintingFeeBps)
	net, err := checkedSub(amount, fee)
	if err != nil {
		return nil, err
	}

	global, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}

	pos.SyntheticMinted = projected
	pos.Health = health
	pos.LastInteractionBlock = now
	global.TotalSyntheticSupply = new(big.Int).Add(global.TotalSyntheticSupply, amount)

	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutGlobal(global); err != nil {
		return nil, err
	}
	return net, nil
}

// Position returns a copy of the account's position, or nil when the
// account has never deposited.
func (e *Engine) Position(account crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.GetPosition(account)
}

// GlobalSnapshot returns a copy of the protocol-wide totals.
func (e *Engine) GlobalSnapshot() (*GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadGlobal()
}

// Liquidations returns the append-only liquidation history.
func (e *Engine) Liquidations() ([]*LiquidationRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.ListLiquidations()
}

// ensurePosition returns the stored position or a fresh zeroed one. The
// fresh position is not persisted until the calling operation commits.
func (e *Engine) ensurePosition(account crypto.Address) (*Position, error) {
	pos, err := e.state.GetPosition(account)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: account, Health: UnboundedHealth()}
	}
	normalisePosition(pos)
	return pos, nil
}

func (e *Engine) loadGlobal() (*GlobalState, error) {
	global, err := e.state.GetGlobal()
	if err != nil {
		return nil, err
	}
	if global == nil {
		global = &GlobalState{}
	}
	if global.TotalCollateral == nil {
		global.TotalCollateral = big.NewInt(0)
	}
	if global.TotalSyntheticSupply == nil {
		global.TotalSyntheticSupply = big.NewInt(0)
	}
	return global, nil
}

// freshPrice returns the current oracle price after enforcing the
// staleness window. A feed that has never accepted a submission reports no
// usable price and fails the same way a stale one does.
func (e *Engine) freshPrice(now uint64) (*big.Int, error) {
	if e.prices == nil {
		return nil, ErrStalePrice
	}
	price, lastUpdate := e.prices.CurrentPrice()
	if price == nil || price.Sign() <= 0 {
		return nil, ErrStalePrice
	}
	if now >= lastUpdate && now-lastUpdate >= e.params.OracleStalenessLimit {
		return nil, ErrStalePrice
	}
	return price, nil
}

func normalisePosition(pos *Position) {
	if pos == nil {
		return
	}
	if pos.CollateralDeposited == nil {
		pos.CollateralDeposited = big.NewInt(0)
	}
	if pos.SyntheticMinted == nil {
		pos.SyntheticMinted = big.NewInt(0)
	}
	if pos.SyntheticMinted.Sign() == 0 && !pos.Health.Unbounded {
		pos.Health = UnboundedHealth()
	}
}
