package bet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/internal/bet/repo"
	"github.com/duobet/couple-bets-platform/internal/validate"
	"github.com/duobet/couple-bets-platform/pkg/contracts/events"
)

// fakeStore implementa Store em memória com as mesmas semânticas condicionais
// do repositório Postgres
type fakeStore struct {
	bets map[string]*repo.Bet
	seq  int
}

func newFakeStore() *fakeStore { return &fakeStore{bets: make(map[string]*repo.Bet)} }

func (f *fakeStore) Insert(_ context.Context, b *repo.Bet) (*repo.Bet, error) {
	f.seq++
	stored := *b
	stored.ID = fmt.Sprintf("bet-%d", f.seq)
	stored.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.bets[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (f *fakeStore) ByID(_ context.Context, id string) (*repo.Bet, error) {
	b, ok := f.bets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) ListByCouple(_ context.Context, coupleID, status string) ([]repo.Bet, error) {
	var out []repo.Bet
	for _, b := range f.bets {
		if b.CoupleID == coupleID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListConcludedAsc(_ context.Context, coupleID string) ([]repo.Bet, error) {
	var out []repo.Bet
	for _, b := range f.bets {
		if b.CoupleID == coupleID && b.Status == repo.StatusConcluded {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConcludedAt.Before(*out[j].ConcludedAt) })
	return out, nil
}

func (f *fakeStore) Approve(_ context.Context, id string) (*repo.Bet, error) {
	b, ok := f.bets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if b.Status != repo.StatusPending {
		return nil, repo.ErrConflict
	}
	b.Status = repo.StatusActive
	cp := *b
	return &cp, nil
}

func (f *fakeStore) Conclude(_ context.Context, id, winnerOption, byUserID string) (*repo.Bet, error) {
	b, ok := f.bets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if b.Status != repo.StatusActive {
		return nil, repo.ErrConflict
	}
	now := time.Now()
	b.Status = repo.StatusConcluded
	b.WinnerOption = winnerOption
	b.ConcludedAt = &now
	b.ConcludedByID = byUserID
	cp := *b
	return &cp, nil
}

func (f *fakeStore) DeleteByCreator(_ context.Context, id, creatorID string) error {
	b, ok := f.bets[id]
	if !ok {
		return repo.ErrNotFound
	}
	if b.CreatorID != creatorID || b.Status == repo.StatusConcluded {
		return repo.ErrConflict
	}
	delete(f.bets, id)
	return nil
}

// fakePublisher acumula os eventos emitidos
type fakePublisher struct {
	published []events.BetChanged
	err       error
}

func (f *fakePublisher) PublishBetChanged(_ context.Context, e events.BetChanged) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

var (
	alice = Actor{ID: "user-a", CoupleID: "couple-1", PartnerID: "user-b", Paired: true}
	bob   = Actor{ID: "user-b", CoupleID: "couple-1", PartnerID: "user-a", Paired: true}
	carol = Actor{ID: "user-c", CoupleID: "couple-2", PartnerID: "user-d", Paired: true}
)

func newTestService(t *testing.T, requireApproval bool) (*Service, *fakeStore, *fakePublisher) {
	t.Helper()
	store := newFakeStore()
	publ := &fakePublisher{}
	return NewService(store, publ, requireApproval, zap.NewNop()), store, publ
}

func validInput() CreateInput {
	return CreateInput{
		Title:         "Quem ganha o jogo?",
		Amount:        "500",
		OptionA:       "Pizza",
		OptionB:       "Sushi",
		CreatorChoice: "a",
	}
}

func TestCreatePendingByPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _, publ := newTestService(t, true)

	b, err := svc.Create(ctx, alice, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != repo.StatusPending {
		t.Errorf("status = %q, want pending under requireApproval", b.Status)
	}
	if b.CoupleID != alice.CoupleID || b.CreatorID != alice.ID {
		t.Error("bet must be scoped to the creator's couple")
	}
	if b.Amount != 500 {
		t.Errorf("amount = %v, want 500", b.Amount)
	}

	if len(publ.published) != 1 || publ.published[0].Op != events.OpInsert {
		t.Errorf("published = %+v, want one insert event", publ.published)
	}
}

func TestCreateActiveByPolicy(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	b, err := svc.Create(context.Background(), alice, validInput())
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != repo.StatusActive {
		t.Errorf("status = %q, want active without requireApproval", b.Status)
	}
}

func TestCreateRequiresPairedUser(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	solo := Actor{ID: "user-x", CoupleID: "couple-9", Paired: false}
	if _, err := svc.Create(context.Background(), solo, validInput()); !errors.Is(err, ErrNotPaired) {
		t.Errorf("err = %v, want ErrNotPaired", err)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, true)

	bad := []CreateInput{
		{Title: "", Amount: "500", OptionA: "A", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "0", OptionA: "A", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "-5", OptionA: "A", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "abc", OptionA: "A", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "2000000", OptionA: "A", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "500", OptionA: "", OptionB: "B", CreatorChoice: "a"},
		{Title: "T", Amount: "500", OptionA: "A", OptionB: "B", CreatorChoice: "c"},
	}
	for i, in := range bad {
		_, err := svc.Create(ctx, alice, in)
		var verr *validate.Error
		if !errors.As(err, &verr) {
			t.Errorf("case %d: err = %v, want validation error", i, err)
		}
	}

	// título sai sanitizado
	in := validInput()
	in.Title = `<b>Jogo</b> "final"`
	b, err := svc.Create(ctx, alice, in)
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "bJogo/b final" {
		t.Errorf("sanitized title = %q", b.Title)
	}
}

func TestApproveLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, publ := newTestService(t, true)

	b, _ := svc.Create(ctx, alice, validInput())

	// criador não aprova a própria aposta
	if _, err := svc.Approve(ctx, alice, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("creator approve err = %v, want ErrForbidden", err)
	}
	// membro de outro casal não enxerga a aposta
	if _, err := svc.Approve(ctx, carol, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger approve err = %v, want ErrNotFound", err)
	}

	upd, err := svc.Approve(ctx, bob, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if upd.Status != repo.StatusActive {
		t.Errorf("status = %q, want active", upd.Status)
	}

	// aprovar de novo: transição não casa
	if _, err := svc.Approve(ctx, bob, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double approve err = %v, want ErrInvalidTransition", err)
	}

	last := publ.published[len(publ.published)-1]
	if last.Op != events.OpUpdate || last.Status != repo.StatusActive {
		t.Errorf("last event = %+v, want active update", last)
	}
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	svc, store, publ := newTestService(t, true)

	b, _ := svc.Create(ctx, alice, validInput())

	if err := svc.Decline(ctx, alice, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("creator decline err = %v, want ErrForbidden", err)
	}

	if err := svc.Decline(ctx, bob, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.bets[b.ID]; ok {
		t.Error("declined bet must be removed entirely")
	}

	last := publ.published[len(publ.published)-1]
	if last.Op != events.OpDelete || last.BetID != b.ID {
		t.Errorf("last event = %+v, want delete", last)
	}

	// active não pode ser recusada
	b2, _ := svc.Create(ctx, alice, validInput())
	if _, err := svc.Approve(ctx, bob, b2.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Decline(ctx, bob, b2.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decline active err = %v, want ErrInvalidTransition", err)
	}
}

func TestConcludeLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, true)

	b, _ := svc.Create(ctx, alice, validInput())

	// pending nunca vai direto pra concluded
	if _, err := svc.Conclude(ctx, bob, b.ID, "a"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("conclude pending err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Approve(ctx, bob, b.ID); err != nil {
		t.Fatal(err)
	}

	// winner_option inválida
	if _, err := svc.Conclude(ctx, bob, b.ID, "x"); err == nil {
		t.Error("invalid winner option accepted")
	}

	// qualquer membro conclui, inclusive o criador
	upd, err := svc.Conclude(ctx, alice, b.ID, "b")
	if err != nil {
		t.Fatal(err)
	}
	if upd.Status != repo.StatusConcluded || upd.WinnerOption != "b" {
		t.Errorf("concluded = %+v", upd)
	}
	if upd.ConcludedAt == nil || upd.ConcludedByID != alice.ID {
		t.Error("conclusion must record when and by whom")
	}

	// concluded é terminal: nada mais transiciona
	if _, err := svc.Conclude(ctx, bob, b.ID, "a"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double conclude err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Approve(ctx, bob, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve concluded err = %v, want ErrInvalidTransition", err)
	}
	if err := svc.Delete(ctx, alice, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("delete concluded err = %v, want ErrInvalidTransition", err)
	}
}

func TestDeleteOnlyCreator(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, true)

	b, _ := svc.Create(ctx, alice, validInput())

	if err := svc.Delete(ctx, bob, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-creator delete err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, carol, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger delete err = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(ctx, alice, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.bets[b.ID]; ok {
		t.Error("bet must be gone after creator delete")
	}
}

func TestListFiltersByStatusAndCouple(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, true)

	b1, _ := svc.Create(ctx, alice, validInput())
	if _, err := svc.Create(ctx, carol, validInput()); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, alice, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != b1.ID {
		t.Errorf("list = %+v, want only couple-1 bets", all)
	}

	pending, _ := svc.List(ctx, alice, "pending")
	if len(pending) != 1 {
		t.Errorf("pending list = %+v", pending)
	}
	active, _ := svc.List(ctx, alice, "active")
	if len(active) != 0 {
		t.Errorf("active list = %+v", active)
	}

	if _, err := svc.List(ctx, alice, "bogus"); err == nil {
		t.Error("bogus status filter accepted")
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, store, publ := newTestService(t, true)
	publ.err = errors.New("kafka down")

	b, err := svc.Create(ctx, alice, validInput())
	if err != nil {
		t.Fatalf("create must survive publish failure: %v", err)
	}
	if _, ok := store.bets[b.ID]; !ok {
		t.Error("bet must be persisted even when publish fails")
	}
}
