package bank

import (
	"errors"
	"math/big"
	"testing"

	"synthvault/crypto"
)

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

func TestCreditAndBalance(t *testing.T) {
	ledger := NewLedger()
	account := makeAddress(0x01)

	if got := ledger.Balance(account); got.Sign() != 0 {
		t.Fatalf("fresh balance = %s, want 0", got)
	}
	if err := ledger.Credit(account, big.NewInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Credit(account, big.NewInt(250)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := ledger.Balance(account); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("balance = %s, want 750", got)
	}

	if err := ledger.Credit(account, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero credit: got %v, want ErrInvalidAmount", err)
	}
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	ledger := NewLedger()
	from := makeAddress(0x01)
	to := makeAddress(0x02)

	if err := ledger.Credit(from, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Transfer(big.NewInt(60), from, to); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.Balance(from); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("source balance = %s, want 40", got)
	}
	if got := ledger.Balance(to); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("destination balance = %s, want 60", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	ledger := NewLedger()
	from := makeAddress(0x01)
	to := makeAddress(0x02)

	if err := ledger.Credit(from, big.NewInt(50)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Transfer(big.NewInt(60), from, to); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: got %v, want ErrInsufficientFunds", err)
	}
	if got := ledger.Balance(from); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("failed transfer changed the source: %s", got)
	}
	if got := ledger.Balance(to); got.Sign() != 0 {
		t.Fatalf("failed transfer credited the destination: %s", got)
	}

	unknown := makeAddress(0x03)
	if err := ledger.Transfer(big.NewInt(1), unknown, to); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unknown source: got %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	ledger := NewLedger()
	from := makeAddress(0x01)
	to := makeAddress(0x02)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		if err := ledger.Transfer(amount, from, to); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: got %v, want ErrInvalidAmount", amount, err)
		}
	}
}
