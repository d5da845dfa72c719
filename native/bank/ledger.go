package bank

import (
	"errors"
	"math/big"
	"sync"

	"synthvault/crypto"
)

var (
	ErrInvalidAmount     = errors.New("bank ledger: amount must be positive")
	ErrInsufficientFunds = errors.New("bank ledger: insufficient funds")
)

// Ledger is an in-process value-movement substrate. The solvency engine
// treats transfers as an external capability; this implementation backs
// the daemon and tests with atomic balance moves.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]*big.Int
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]*big.Int)}
}

func accountKey(addr crypto.Address) string {
	return string(addr.Prefix()) + "/" + string(addr.Bytes())
}

// Credit adds funds to an account. Used to seed custody and test accounts.
func (l *Ledger) Credit(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[accountKey(addr)]
	if !ok {
		balance = big.NewInt(0)
	}
	l.balances[accountKey(addr)] = new(big.Int).Add(balance, amount)
	return nil
}

// Balance returns the account balance, zero for unknown accounts.
func (l *Ledger) Balance(addr crypto.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.balances[accountKey(addr)]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// Transfer moves funds between accounts atomically. Either both balances
// change or neither does.
func (l *Ledger) Transfer(amount *big.Int, from, to crypto.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	source, ok := l.balances[accountKey(from)]
	if !ok || source.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	dest, ok := l.balances[accountKey(to)]
	if !ok {
		dest = big.NewInt(0)
	}
	l.balances[accountKey(from)] = new(big.Int).Sub(source, amount)
	l.balances[accountKey(to)] = new(big.Int).Add(dest, amount)
	return nil
}
