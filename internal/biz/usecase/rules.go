package usecase

import (
	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
)

// ConversationScopeFor derives the visibility predicate for a staff
// principal from its role. The result is pure and deterministic for a given
// principal and is re-derived on every query, so authorization always
// reflects the current principal state. An unrecognized role compiles to the
// zero scope, which matches nothing.
func ConversationScopeFor(staff *domain.Staff) repo.ConversationScope {
	switch staff.Type {
	case domain.StaffTypeAdmin:
		return repo.ConversationScope{All: true}
	case domain.StaffTypeAgent:
		return repo.ConversationScope{
			Types: []domain.ConversationType{domain.ConversationTypeCustomer},
		}
	case domain.StaffTypeBot:
		return repo.ConversationScope{
			Types:           []domain.ConversationType{domain.ConversationTypeCustomer},
			RequireCustomer: true,
		}
	}
	return repo.ConversationScope{}
}

// JoinableTypes lists the conversation types a staff principal may be added
// to. Unrecognized roles may join nothing.
func JoinableTypes(staff *domain.Staff) []domain.ConversationType {
	switch staff.Type {
	case domain.StaffTypeAdmin:
		return []domain.ConversationType{
			domain.ConversationTypeCustomer,
			domain.ConversationTypeInternal,
		}
	case domain.StaffTypeAgent, domain.StaffTypeBot:
		return []domain.ConversationType{domain.ConversationTypeCustomer}
	}
	return nil
}

func canJoin(staff *domain.Staff, t domain.ConversationType) bool {
	for _, jt := range JoinableTypes(staff) {
		if jt == t {
			return true
		}
	}
	return false
}
