package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/societyops/dueskeeper/internal/config"
	"github.com/societyops/dueskeeper/internal/domain"
)

func TestLoadSeed_CanonicalDefaults(t *testing.T) {
	ledger, err := config.LoadSeed("", 1500)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}

	if len(ledger.FeeSchedule) != 12 {
		t.Fatalf("fee schedule = %d entries, want 12", len(ledger.FeeSchedule))
	}
	for _, f := range ledger.FeeSchedule {
		if f.Amount != 1500 {
			t.Errorf("fee for %s = %d, want 1500", f.Month, f.Amount)
		}
	}
	if got := ledger.EventFee("Diwali Celebration"); got != 500 {
		t.Errorf("Diwali Celebration fee = %d, want 500", got)
	}
	if got := ledger.EventFee("New Year Party"); got != 750 {
		t.Errorf("New Year Party fee = %d, want 750", got)
	}
	if len(ledger.Members) != 0 {
		t.Errorf("members = %d, want 0", len(ledger.Members))
	}
	if ledger.History == nil || ledger.Expenses == nil {
		t.Error("expected all collections initialized to empty slices")
	}
}

func TestLoadSeed_YAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := `monthly_fee: 2000
events:
  - name: "Annual Picnic"
    amount: 300
members:
  - name: "Asha"
    email: "asha@example.com"
    joining_date: "2025-01-15"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	ledger, err := config.LoadSeed(path, 1500)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}

	if got := ledger.FeeFor("March"); got != 2000 {
		t.Errorf("FeeFor(March) = %d, want the overridden 2000", got)
	}
	if got := ledger.EventFee("Annual Picnic"); got != 300 {
		t.Errorf("Annual Picnic fee = %d, want 300", got)
	}
	// A YAML seed replaces the canonical events entirely.
	if got := ledger.EventFee("Diwali Celebration"); got != 0 {
		t.Errorf("Diwali Celebration fee = %d, want 0 when a seed file is given", got)
	}
	if len(ledger.Members) != 1 || ledger.Members[0].Status != domain.MemberActive {
		t.Errorf("members = %+v, want one active member", ledger.Members)
	}
}

func TestLoadSeed_MissingFile(t *testing.T) {
	if _, err := config.LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"), 1500); err == nil {
		t.Fatal("expected an error for a missing seed file")
	}
}
