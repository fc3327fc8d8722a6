package couple

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestRepairPromotesMutualHalfPair(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := NewDirectory(store, zap.NewNop())
	svc := NewService(store, dir, zap.NewNop())

	a, _ := svc.CreateCouple(ctx, "Alice")
	b, _ := svc.JoinCouple(ctx, "Bob", a.Couple.CoupleCode, "")

	// simula crash entre as duas escritas do pareamento: o lado de Bob ficou
	// com is_paired=false mas o partner_id mútuo já existe
	store.users[b.User.ID].IsPaired = false

	rep := NewRepairer(store, zap.NewNop())
	n, err := rep.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("repaired = %d, want 1", n)
	}

	alice, bob := store.users[a.User.ID], store.users[b.User.ID]
	if !alice.IsPaired || !bob.IsPaired || alice.PartnerID != bob.ID || bob.PartnerID != alice.ID {
		t.Error("mutual half-pair must be promoted back to paired")
	}
}

func TestRepairDemotesDanglingPair(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := NewDirectory(store, zap.NewNop())
	svc := NewService(store, dir, zap.NewNop())

	a, _ := svc.CreateCouple(ctx, "Alice")
	alice := store.users[a.User.ID]
	alice.IsPaired = true
	alice.PartnerID = "ghost-user"

	rep := NewRepairer(store, zap.NewNop())
	if _, err := rep.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if alice.IsPaired || alice.PartnerID != "" {
		t.Error("pairing pointing at a missing partner must be demoted")
	}
}

func TestRepairNoAnomalies(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	dir := NewDirectory(store, zap.NewNop())
	svc := NewService(store, dir, zap.NewNop())

	a, _ := svc.CreateCouple(ctx, "Alice")
	if _, err := svc.JoinCouple(ctx, "Bob", a.Couple.CoupleCode, ""); err != nil {
		t.Fatal(err)
	}

	rep := NewRepairer(store, zap.NewNop())
	n, err := rep.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("healthy couple repaired %d times, want 0", n)
	}
}
