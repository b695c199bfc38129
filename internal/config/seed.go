package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/societyops/dueskeeper/internal/domain"
)

// Seed describes the initial ledger contents used when the backing store
// does not exist yet. The canonical defaults mirror a fresh deployment:
// every month due at the default fee, two example events, everything else
// empty.
type Seed struct {
	MonthlyFee int64 `yaml:"monthly_fee"`
	Events     []struct {
		Name   string `yaml:"name"`
		Amount int64  `yaml:"amount"`
	} `yaml:"events"`
	Members []struct {
		Name        string `yaml:"name"`
		Email       string `yaml:"email"`
		JoiningDate string `yaml:"joining_date"`
	} `yaml:"members"`
}

// LoadSeed builds the seed ledger. When path is empty the canonical
// defaults are used; otherwise the YAML file at path overrides them.
func LoadSeed(path string, defaultMonthlyFee int64) (*domain.Ledger, error) {
	seed := Seed{MonthlyFee: defaultMonthlyFee}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed file: %w", err)
		}
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("parsing seed file: %w", err)
		}
		if seed.MonthlyFee == 0 {
			seed.MonthlyFee = defaultMonthlyFee
		}
	}

	ledger := &domain.Ledger{
		FeeSchedule:    make([]domain.FeeScheduleEntry, 0, len(domain.Months)),
		Events:         []domain.EventDefinition{},
		MonthlyDetails: []domain.MonthlyPaymentDetail{},
		ExtraDetails:   []domain.ExtraPaymentDetail{},
		Expenses:       []domain.Expense{},
		History:        []domain.HistoryEntry{},
		Members:        []domain.Member{},
	}
	for _, m := range domain.Months {
		ledger.FeeSchedule = append(ledger.FeeSchedule, domain.FeeScheduleEntry{Month: m, Amount: seed.MonthlyFee})
	}

	if path == "" {
		ledger.Events = append(ledger.Events,
			domain.EventDefinition{Name: "Diwali Celebration", Amount: 500},
			domain.EventDefinition{Name: "New Year Party", Amount: 750},
		)
		return ledger, nil
	}

	for _, e := range seed.Events {
		ledger.Events = append(ledger.Events, domain.EventDefinition{Name: e.Name, Amount: e.Amount})
	}
	for _, m := range seed.Members {
		ledger.Members = append(ledger.Members, domain.Member{
			Name:        m.Name,
			Email:       m.Email,
			JoiningDate: m.JoiningDate,
			Status:      domain.MemberActive,
		})
	}
	return ledger, nil
}
