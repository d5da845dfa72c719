package oracle

import (
	"errors"
	"testing"

	"synthvault/crypto"
)

func TestRegisterAdminGated(t *testing.T) {
	admin := makeAddress(crypto.AccountPrefix, 0x01)
	intruder := makeAddress(crypto.AccountPrefix, 0x02)
	reporter := makeAddress(crypto.AccountPrefix, 0x03)
	registry := NewRegistry(admin)

	if err := registry.Register(intruder, reporter); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-admin register: got %v, want ErrNotAuthorized", err)
	}
	if registry.IsActive(reporter) {
		t.Fatal("rejected registration activated the oracle")
	}

	if err := registry.Register(admin, reporter); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !registry.IsActive(reporter) {
		t.Fatal("registered oracle should be active")
	}

	entry := registry.Get(reporter)
	if entry == nil {
		t.Fatal("expected registry entry")
	}
	if entry.CredibilityScore != 100 {
		t.Fatalf("credibility = %d, want 100", entry.CredibilityScore)
	}
	if entry.TotalSubmissions != 0 {
		t.Fatalf("submissions = %d, want 0", entry.TotalSubmissions)
	}
}

func TestReregisterPreservesCounters(t *testing.T) {
	admin := makeAddress(crypto.AccountPrefix, 0x01)
	reporter := makeAddress(crypto.AccountPrefix, 0x03)
	registry := NewRegistry(admin)

	if err := registry.Register(admin, reporter); err != nil {
		t.Fatalf("register: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := registry.RecordSubmission(reporter); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := registry.Register(admin, reporter); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	entry := registry.Get(reporter)
	if entry.TotalSubmissions != 3 {
		t.Fatalf("submissions after re-register = %d, want 3", entry.TotalSubmissions)
	}
	if !entry.Active {
		t.Fatal("re-register should leave the oracle active")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	admin := makeAddress(crypto.AccountPrefix, 0x01)
	reporter := makeAddress(crypto.AccountPrefix, 0x03)
	registry := NewRegistry(admin)
	if err := registry.Register(admin, reporter); err != nil {
		t.Fatalf("register: %v", err)
	}

	entry := registry.Get(reporter)
	entry.Active = false
	entry.TotalSubmissions = 99

	if !registry.IsActive(reporter) {
		t.Fatal("mutating a returned entry leaked into the registry")
	}
	if fresh := registry.Get(reporter); fresh.TotalSubmissions != 0 {
		t.Fatalf("counter leaked: %d", fresh.TotalSubmissions)
	}
}

func TestRecordSubmissionUnknownOracle(t *testing.T) {
	admin := makeAddress(crypto.AccountPrefix, 0x01)
	registry := NewRegistry(admin)
	stranger := makeAddress(crypto.AccountPrefix, 0x09)

	if err := registry.RecordSubmission(stranger); !errors.Is(err, ErrOracleNotRegistered) {
		t.Fatalf("unknown oracle: got %v, want ErrOracleNotRegistered", err)
	}
}
