package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/societyops/dueskeeper/internal/domain"
)

// Member mutations. These touch only the members document; payment records
// keyed by member name are deliberately left alone so historical records
// survive a member's removal.

func (s *LedgerService) addMember(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.AddMemberPayload](domain.ActionAddMember, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "member name is required"}
	}
	for _, m := range ledger.Members {
		if m.Name == p.Name {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("member %q already exists", p.Name)}
		}
	}

	joined := p.JoiningDate
	if joined == "" {
		joined = s.now().UTC().Format("2006-01-02")
	}
	member := domain.Member{
		ID:          s.newID(),
		Name:        p.Name,
		Email:       p.Email,
		JoiningDate: joined,
		Status:      domain.MemberActive,
	}
	ledger.Members = append(ledger.Members, member)
	return member, nil
}

func (s *LedgerService) removeMember(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.RemoveMemberPayload](domain.ActionRemoveMember, raw)
	if err != nil {
		return nil, err
	}

	// Removal is idempotent: a name matching no member leaves the registry
	// untouched and still succeeds.
	kept := ledger.Members[:0]
	for _, m := range ledger.Members {
		if m.Name == p.Name {
			continue
		}
		kept = append(kept, m)
	}
	ledger.Members = kept
	return nil, nil
}

func (s *LedgerService) editMember(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.EditMemberPayload](domain.ActionEditMember, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "member name is required"}
	}

	for i := range ledger.Members {
		if ledger.Members[i].Name == p.OriginalName {
			ledger.Members[i].Name = p.Name
			ledger.Members[i].Email = p.Email
			return ledger.Members[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "member", Key: p.OriginalName}
}

func (s *LedgerService) toggleMemberStatus(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.ToggleMemberStatusPayload](domain.ActionToggleMemberStatus, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.Members, p.RecordRef, "members", func(m *domain.Member) string { return m.ID })
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case domain.MemberActive, domain.MemberInactive:
		ledger.Members[i].Status = p.Status
	case "":
		if ledger.Members[i].Status == domain.MemberInactive {
			ledger.Members[i].Status = domain.MemberActive
		} else {
			ledger.Members[i].Status = domain.MemberInactive
		}
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "status must be active or inactive"}
	}

	// Reactivation clears a previously scheduled leave month.
	if ledger.Members[i].Status == domain.MemberActive {
		ledger.Members[i].DeactivationMonth = ""
	}
	return ledger.Members[i], nil
}

func (s *LedgerService) setDeactivationMonth(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.SetDeactivationMonthPayload](domain.ActionSetDeactivationMonth, raw)
	if err != nil {
		return nil, err
	}
	if p.DeactivationMonth != "" && !validMonth(p.DeactivationMonth) {
		return nil, &domain.ErrValidation{Field: "deactivationMonth", Message: "not a calendar month"}
	}
	i, err := resolveRef(ledger.Members, p.RecordRef, "members", func(m *domain.Member) string { return m.ID })
	if err != nil {
		return nil, err
	}
	ledger.Members[i].DeactivationMonth = p.DeactivationMonth
	return ledger.Members[i], nil
}

func validMonth(month string) bool {
	for _, m := range domain.Months {
		if m == month {
			return true
		}
	}
	return false
}
