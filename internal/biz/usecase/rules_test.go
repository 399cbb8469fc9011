package usecase

import (
	"testing"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
)

func TestConversationScopeFor(t *testing.T) {
	customerConv := &domain.Conversation{Type: domain.ConversationTypeCustomer, CustomerID: "cust-1"}
	customerNoLink := &domain.Conversation{Type: domain.ConversationTypeCustomer}
	internalConv := &domain.Conversation{Type: domain.ConversationTypeInternal}

	tests := []struct {
		name         string
		staffType    domain.StaffType
		seesCustomer bool
		seesNoLink   bool
		seesInternal bool
	}{
		{"admin sees everything", domain.StaffTypeAdmin, true, true, true},
		{"agent sees customer only", domain.StaffTypeAgent, true, true, false},
		{"bot needs a linked customer", domain.StaffTypeBot, true, false, false},
		{"unknown role sees nothing", domain.StaffType("intern"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := ConversationScopeFor(&domain.Staff{ID: "s1", Type: tt.staffType})
			if got := scope.Matches(customerConv); got != tt.seesCustomer {
				t.Errorf("Matches(customer) = %v, want %v", got, tt.seesCustomer)
			}
			if got := scope.Matches(customerNoLink); got != tt.seesNoLink {
				t.Errorf("Matches(customer without link) = %v, want %v", got, tt.seesNoLink)
			}
			if got := scope.Matches(internalConv); got != tt.seesInternal {
				t.Errorf("Matches(internal) = %v, want %v", got, tt.seesInternal)
			}
		})
	}
}

func TestJoinableTypes(t *testing.T) {
	admin := &domain.Staff{Type: domain.StaffTypeAdmin}
	agent := &domain.Staff{Type: domain.StaffTypeAgent}
	unknown := &domain.Staff{Type: domain.StaffType("intern")}

	if !canJoin(admin, domain.ConversationTypeInternal) {
		t.Error("admin should join internal conversations")
	}
	if !canJoin(agent, domain.ConversationTypeCustomer) {
		t.Error("agent should join customer conversations")
	}
	if canJoin(agent, domain.ConversationTypeInternal) {
		t.Error("agent must not join internal conversations")
	}
	if canJoin(unknown, domain.ConversationTypeCustomer) {
		t.Error("unknown role must not join anything")
	}
}
