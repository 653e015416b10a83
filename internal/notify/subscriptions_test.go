package notify

import (
	"context"
	"testing"
)

func TestSubscribeRoundTrip(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if err := s.Subscribe("chan-1", []string{TypeMaintenance}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	dests := s.TypesToDestinations(TypeMaintenance)
	if len(dests) != 1 || dests[0] != "chan-1" {
		t.Fatalf("expected [chan-1], got %v", dests)
	}

	if !s.Unsubscribe("chan-1", TypeMaintenance) {
		t.Fatalf("unsubscribe should report true for a known destination")
	}
	if dests := s.TypesToDestinations(TypeMaintenance); len(dests) != 0 {
		t.Fatalf("expected no destinations after unsubscribe, got %v", dests)
	}
}

func TestSubscribeValidation(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if err := s.Subscribe("", []string{TypeMaintenance}); err == nil {
		t.Fatalf("expected error for empty destination")
	}
	if err := s.Subscribe("c", nil); err == nil {
		t.Fatalf("expected error for empty type list")
	}
	if err := s.Subscribe("c", []string{"  ", ""}); err == nil {
		t.Fatalf("expected error for blank-only type list")
	}
}

func TestUnsubscribeScopedRemoval(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if err := s.Subscribe("c", []string{TypeMaintenance, TypeSecurity}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Removing one type keeps the entry alive.
	s.Unsubscribe("c", TypeMaintenance)
	subs := s.Subscriptions()
	if len(subs) != 1 || len(subs[0].Types) != 1 || subs[0].Types[0] != TypeSecurity {
		t.Fatalf("scoped removal wrong: %+v", subs)
	}

	// Emptying the type set deletes the entry entirely.
	s.Unsubscribe("c", TypeSecurity)
	if len(s.Subscriptions()) != 0 {
		t.Fatalf("entry with empty type set must be deleted")
	}
}

func TestUnsubscribeAll(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if err := s.Subscribe("c", []string{TypeMaintenance, TypeSecurity, TypeFeature}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !s.Unsubscribe("c") {
		t.Fatalf("unsubscribe-all should report true")
	}
	if len(s.Subscriptions()) != 0 {
		t.Fatalf("unsubscribe-all must delete the entry")
	}
	if s.Unsubscribe("missing") {
		t.Fatalf("unknown destination should report false")
	}
}

func TestWildcardSubscriptionMatchesEveryType(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if err := s.Subscribe("ops", []string{Wildcard}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	for _, typ := range []string{TypeMaintenance, TypeFeature, "custom-thing"} {
		dests := s.TypesToDestinations(typ)
		if len(dests) != 1 || dests[0] != "ops" {
			t.Fatalf("wildcard missed type %s: %v", typ, dests)
		}
	}
}

func TestSubscriptionChangeAffectsQueuedJobs(t *testing.T) {
	// Routing is resolved at send time: a webhook added after enqueue
	// still receives the queued job.
	wh := &fakeHooks{}
	s := newTestService(t, nil, wh, nil)

	if _, err := s.Enqueue(TypeVersion, Data{"version": S("1")}, nil, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := s.AddWebhook("https://hooks.example/late", []string{Wildcard}, "late"); err != nil {
		t.Fatalf("add webhook: %v", err)
	}
	s.drainOnce(context.Background())
	if wh.count() != 1 {
		t.Fatalf("late-registered webhook should receive the queued job")
	}
}
