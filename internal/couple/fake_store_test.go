package couple

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/duobet/couple-bets-platform/internal/couple/repo"
)

// fakeStore implementa Store e RepairStore em memória para os testes
type fakeStore struct {
	couples map[string]*repo.Couple // por id
	users   map[string]*repo.User   // por id
	seq     int

	// injeção de falha: erro retornado por CoupleByCode quando setado
	codeLookupErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		couples: make(map[string]*repo.Couple),
		users:   make(map[string]*repo.User),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) CoupleByCode(_ context.Context, code string) (*repo.Couple, error) {
	if f.codeLookupErr != nil {
		return nil, f.codeLookupErr
	}
	for _, c := range f.couples {
		if c.CoupleCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) CoupleByID(_ context.Context, id string) (*repo.Couple, error) {
	c, ok := f.couples[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CountPaired(_ context.Context, coupleID string) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.CoupleID == coupleID && u.IsPaired {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UserByToken(_ context.Context, authToken string) (*repo.User, error) {
	for _, u := range f.users {
		if u.AuthToken == authToken {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) UserByCoupleAndToken(_ context.Context, coupleID, authToken string) (*repo.User, error) {
	for _, u := range f.users {
		if u.CoupleID == coupleID && u.AuthToken == authToken {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) UserByID(_ context.Context, id string) (*repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) CreateCouple(_ context.Context, code string) (*repo.Couple, error) {
	c := &repo.Couple{ID: f.nextID("couple"), CoupleCode: code, CreatedAt: time.Now()}
	f.couples[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeStore) SetCoupleOwner(_ context.Context, coupleID, userID string) error {
	c, ok := f.couples[coupleID]
	if !ok {
		return repo.ErrNotFound
	}
	c.CreatedByUserID = userID
	return nil
}

func (f *fakeStore) CreateUser(_ context.Context, coupleID, name, authToken string) (*repo.User, error) {
	u := &repo.User{
		ID:        f.nextID("user"),
		Name:      name,
		CoupleID:  coupleID,
		AuthToken: authToken,
		CreatedAt: time.Now().Add(time.Duration(f.seq) * time.Millisecond),
	}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateUserName(_ context.Context, userID, name string) error {
	u, ok := f.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Name = name
	return nil
}

func (f *fakeStore) Pair(_ context.Context, coupleID, joinerID string) (*repo.User, *repo.User, error) {
	joiner, ok := f.users[joinerID]
	if !ok {
		return nil, nil, repo.ErrNotFound
	}

	var candidates []*repo.User
	for _, u := range f.users {
		if u.CoupleID == coupleID && u.ID != joinerID {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, repo.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	partner := candidates[0]

	for _, u := range f.users {
		if u.CoupleID == coupleID && u.IsPaired && u.ID != joinerID && u.ID != partner.ID {
			return nil, nil, repo.ErrCoupleFull
		}
	}

	joiner.IsPaired, joiner.PartnerID = true, partner.ID
	partner.IsPaired, partner.PartnerID = true, joiner.ID
	j, p := *joiner, *partner
	return &j, &p, nil
}

func (f *fakeStore) RestorePair(_ context.Context, aID, bID string) error {
	a, okA := f.users[aID]
	b, okB := f.users[bID]
	if !okA || !okB {
		return repo.ErrNotFound
	}
	a.IsPaired, a.PartnerID = true, b.ID
	b.IsPaired, b.PartnerID = true, a.ID
	return nil
}

func (f *fakeStore) Unpair(_ context.Context, userID string) error {
	u, ok := f.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	if p, ok := f.users[u.PartnerID]; ok {
		p.IsPaired, p.PartnerID = false, ""
	}
	u.IsPaired, u.PartnerID = false, ""
	return nil
}

func (f *fakeStore) FindHalfPaired(_ context.Context) ([]repo.PairAnomaly, error) {
	var out []repo.PairAnomaly
	var ids []string
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		u := f.users[id]
		if !u.IsPaired {
			continue
		}
		p, ok := f.users[u.PartnerID]
		if u.PartnerID == "" || !ok || !p.IsPaired || p.PartnerID != u.ID {
			a := repo.PairAnomaly{User: *u}
			if ok {
				cp := *p
				a.Partner = &cp
			}
			out = append(out, a)
		}
	}
	return out, nil
}

var errBackendDown = errors.New("backend unavailable")
