package core

import (
	"context"
	"testing"

	"dormcore/pkg/domain"
)

// stubRuleView feeds rules a fixed snapshot without a store.
type stubRuleView struct {
	rooms []domain.Room
	links []domain.DocumentOccupantLink
}

func (v stubRuleView) ListDormitories() []domain.Dormitory { return nil }
func (v stubRuleView) ListRooms() []domain.Room            { return v.rooms }
func (v stubRuleView) ListResidents() []domain.Resident    { return nil }
func (v stubRuleView) ListChildren() []domain.Child        { return nil }
func (v stubRuleView) ListDocuments() []domain.Document    { return nil }
func (v stubRuleView) ListLinks() []domain.DocumentOccupantLink {
	return v.links
}
func (v stubRuleView) FindRoom(string) (domain.Room, bool)           { return domain.Room{}, false }
func (v stubRuleView) FindDormitory(string) (domain.Dormitory, bool) { return domain.Dormitory{}, false }

func TestRoomCapacityRule(t *testing.T) {
	rule := NewRoomCapacityRule()
	view := stubRuleView{rooms: []domain.Room{
		{Base: domain.Base{ID: "full"}, Number: 101, Capacity: 2, OccupantIDs: []string{"a", "b"}},
		{Base: domain.Base{ID: "over"}, Number: 102, Capacity: 1, OccupantIDs: []string{"c", "d"}},
	}}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(res.Violations))
	}
	v := res.Violations[0]
	if v.Rule != "room_capacity" || v.Severity != domain.SeverityBlock || v.EntityID != "over" {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestRoomMembershipRule(t *testing.T) {
	rule := NewRoomMembershipRule()
	view := stubRuleView{rooms: []domain.Room{
		{Base: domain.Base{ID: "r1"}, Number: 101, Capacity: 3, OccupantIDs: []string{"a", "a"}},
		{Base: domain.Base{ID: "r2"}, Number: 102, Capacity: 3, OccupantIDs: []string{"a"}},
	}}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// One violation for the duplicate listing, one for the double assignment.
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %+v", len(res.Violations), res.Violations)
	}
	for _, v := range res.Violations {
		if v.Rule != "room_membership" || v.Severity != domain.SeverityBlock {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
}

func TestDocumentLinksRule(t *testing.T) {
	rule := NewDocumentLinksRule()
	view := stubRuleView{links: []domain.DocumentOccupantLink{
		{Base: domain.Base{ID: "l1"}, DocumentID: "d1", OccupantID: "o1"},
		{Base: domain.Base{ID: "l2"}, DocumentID: "d1", OccupantID: "o1"},
		{Base: domain.Base{ID: "l3"}, DocumentID: "d1", OccupantID: "o2"},
	}}

	res, err := rule.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "l2" {
		t.Fatalf("unexpected violations %+v", res.Violations)
	}
}

func TestDefaultRulesEngineRegistersPolicySet(t *testing.T) {
	engine := NewDefaultRulesEngine()
	names := map[string]bool{}
	for _, rule := range engine.Rules() {
		names[rule.Name()] = true
	}
	for _, want := range []string{"room_capacity", "room_membership", "document_links"} {
		if !names[want] {
			t.Fatalf("missing rule %s in %v", want, names)
		}
	}
}
