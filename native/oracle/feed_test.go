package oracle

import (
	"errors"
	"math/big"
	"testing"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.NewAddress(prefix, raw)
}

func newTestFeed(t *testing.T) (*Feed, *Registry, crypto.Address, crypto.Address) {
	t.Helper()
	admin := makeAddress(crypto.AccountPrefix, 0x01)
	reporter := makeAddress(crypto.AccountPrefix, 0x02)
	registry := NewRegistry(admin)
	if err := registry.Register(admin, reporter); err != nil {
		t.Fatalf("register: %v", err)
	}
	feed := NewFeed(registry, 60, 100)
	return feed, registry, admin, reporter
}

func TestSubmitAcceptsAndPublishes(t *testing.T) {
	feed, registry, _, reporter := newTestFeed(t)

	id, err := feed.Submit(reporter, "sBTC", big.NewInt(90_000_000), 60, 42)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != 1 {
		t.Fatalf("submission id = %d, want 1", id)
	}

	price, lastUpdate := feed.CurrentPrice()
	if price.Cmp(big.NewInt(90_000_000)) != 0 {
		t.Fatalf("price = %s, want 90000000", price)
	}
	if lastUpdate != 42 {
		t.Fatalf("last update = %d, want 42", lastUpdate)
	}

	entry := registry.Get(reporter)
	if entry.TotalSubmissions != 1 {
		t.Fatalf("submissions = %d, want 1", entry.TotalSubmissions)
	}

	submissions := feed.Submissions()
	if len(submissions) != 1 {
		t.Fatalf("stored submissions = %d, want 1", len(submissions))
	}
	got := submissions[0]
	if got.AssetID != "sBTC" || got.Confidence != 60 || got.Timestamp != 42 {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestSubmitIDsMonotonic(t *testing.T) {
	feed, _, _, reporter := newTestFeed(t)

	for want := uint64(1); want <= 3; want++ {
		id, err := feed.Submit(reporter, "sBTC", big.NewInt(100_000_000), 80, want)
		if err != nil {
			t.Fatalf("submit %d: %v", want, err)
		}
		if id != want {
			t.Fatalf("submission id = %d, want %d", id, want)
		}
	}
	// The last accepted submission owns the current price.
	if _, err := feed.Submit(reporter, "sETH", big.NewInt(50_000_000), 80, 9); err != nil {
		t.Fatalf("submit: %v", err)
	}
	price, lastUpdate := feed.CurrentPrice()
	if price.Cmp(big.NewInt(50_000_000)) != 0 || lastUpdate != 9 {
		t.Fatalf("current price = %s at %d, want 50000000 at 9", price, lastUpdate)
	}
}

func TestSubmitUnregisteredRejected(t *testing.T) {
	feed, _, _, _ := newTestFeed(t)
	stranger := makeAddress(crypto.AccountPrefix, 0x44)

	if _, err := feed.Submit(stranger, "sBTC", big.NewInt(1), 90, 1); !errors.Is(err, ErrOracleNotRegistered) {
		t.Fatalf("unregistered submit: got %v, want ErrOracleNotRegistered", err)
	}
	if price, _ := feed.CurrentPrice(); price != nil {
		t.Fatalf("rejected submit published a price: %s", price)
	}
}

func TestSubmitConfidenceFloor(t *testing.T) {
	feed, registry, _, reporter := newTestFeed(t)

	if _, err := feed.Submit(reporter, "sBTC", big.NewInt(90_000_000), 59, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("confidence 59: got %v, want ErrInvalidAmount", err)
	}
	if entry := registry.Get(reporter); entry.TotalSubmissions != 0 {
		t.Fatalf("rejected submit bumped the counter: %d", entry.TotalSubmissions)
	}
	if _, err := feed.Submit(reporter, "sBTC", big.NewInt(90_000_000), 60, 1); err != nil {
		t.Fatalf("confidence 60: %v", err)
	}
}

func TestSubmitRejectsNonPositivePrice(t *testing.T) {
	feed, _, _, reporter := newTestFeed(t)

	for _, price := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		if _, err := feed.Submit(reporter, "sBTC", price, 90, 1); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("price %v: got %v, want ErrInvalidAmount", price, err)
		}
	}
}

func TestSubmitBlockedWhilePaused(t *testing.T) {
	feed, _, admin, reporter := newTestFeed(t)
	pauses := nativecommon.NewPauseRegistry(admin)
	feed.SetPauses(pauses)

	if err := pauses.Pause(admin); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := feed.Submit(reporter, "sBTC", big.NewInt(1_000), 90, 1); !errors.Is(err, ErrContractPaused) {
		t.Fatalf("paused submit: got %v, want ErrContractPaused", err)
	}
	if err := pauses.Resume(admin); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := feed.Submit(reporter, "sBTC", big.NewInt(1_000), 90, 1); err != nil {
		t.Fatalf("submit after resume: %v", err)
	}
}

func TestIsFreshWindow(t *testing.T) {
	feed, _, _, _ := newTestFeed(t)

	if !feed.IsFresh(0, 99) {
		t.Fatal("99 blocks old must be fresh under a 100 block window")
	}
	if feed.IsFresh(0, 100) {
		t.Fatal("100 blocks old must be stale")
	}
	// A feed updated in the caller's future never counts as stale.
	if !feed.IsFresh(50, 10) {
		t.Fatal("update ahead of the clock must read as fresh")
	}
}

func TestSubmitCounterTracksStoredSubmissions(t *testing.T) {
	feed, registry, _, reporter := newTestFeed(t)

	for i := uint64(1); i <= 4; i++ {
		if _, err := feed.Submit(reporter, "sBTC", big.NewInt(100_000_000), 80, i); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	// A rejected submission leaves both sides untouched.
	if _, err := feed.Submit(reporter, "sBTC", big.NewInt(0), 80, 5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("rejected submit: %v", err)
	}

	entry := registry.Get(reporter)
	stored := feed.Submissions()
	if entry.TotalSubmissions != uint64(len(stored)) {
		t.Fatalf("counter %d diverges from %d stored submissions", entry.TotalSubmissions, len(stored))
	}
	if entry.TotalSubmissions != 4 {
		t.Fatalf("submissions = %d, want 4", entry.TotalSubmissions)
	}
}

func TestCurrentPriceEmptyFeed(t *testing.T) {
	feed, _, _, _ := newTestFeed(t)
	price, lastUpdate := feed.CurrentPrice()
	if price != nil || lastUpdate != 0 {
		t.Fatalf("empty feed published %s at %d", price, lastUpdate)
	}
}
