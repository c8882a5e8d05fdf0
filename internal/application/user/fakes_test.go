package user

import (
	"context"
	"strings"
	"sync"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
)

// fakeUsers is an in-memory outbound.UserRepository
type fakeUsers struct {
	mu    sync.Mutex
	byKey map[string]user.User
	order []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byKey: map[string]user.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := f.byKey[key]; ok {
		return user.ErrEmailExists
	}
	f.byKey[key] = *u
	f.order = append(f.order, key)
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byKey[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindFirstByEmailSuffix(_ context.Context, suffix string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range f.order {
		if strings.HasSuffix(key, strings.ToLower(suffix)) {
			u := f.byKey[key]
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUsers) Update(_ context.Context, previousEmail string, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldKey, newKey := strings.ToLower(previousEmail), strings.ToLower(u.Email)
	if _, ok := f.byKey[oldKey]; !ok {
		return user.ErrUserNotFound
	}
	if _, taken := f.byKey[newKey]; taken && newKey != oldKey {
		return user.ErrEmailExists
	}
	delete(f.byKey, oldKey)
	f.byKey[newKey] = *u
	for i, k := range f.order {
		if k == oldKey {
			f.order[i] = newKey
		}
	}
	return nil
}

type fakeStats struct{ cooked map[string]int }

func (f *fakeStats) IncrementCooked(_ context.Context, owner string) (int, error) {
	f.cooked[owner]++
	return f.cooked[owner], nil
}

func (f *fakeStats) CookedCount(_ context.Context, owner string) (int, error) {
	return f.cooked[owner], nil
}

type fakeCookbook struct{ entries map[string][]recipe.SavedRecipe }

func (f *fakeCookbook) Upsert(_ context.Context, owner string, e recipe.SavedRecipe) (bool, error) {
	f.entries[owner] = append(f.entries[owner], e)
	return false, nil
}
func (f *fakeCookbook) Delete(context.Context, string, string) (bool, error) { return false, nil }
func (f *fakeCookbook) Get(context.Context, string, string) (*recipe.SavedRecipe, error) {
	return nil, recipe.ErrRecipeNotFound
}
func (f *fakeCookbook) List(_ context.Context, owner string) ([]recipe.SavedRecipe, error) {
	return f.entries[owner], nil
}
func (f *fakeCookbook) ReplaceAll(_ context.Context, owner string, e []recipe.SavedRecipe) error {
	f.entries[owner] = e
	return nil
}

// fakeRestrictions serialises Modify with a mutex like the real repository.
type fakeRestrictions struct {
	mu    sync.Mutex
	lists map[string]user.Restrictions
}

func (f *fakeRestrictions) Get(_ context.Context, owner string) (user.Restrictions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(user.Restrictions(nil), f.lists[owner]...), nil
}

func (f *fakeRestrictions) Modify(_ context.Context, owner string, fn func(*user.Restrictions) error) (user.Restrictions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append(user.Restrictions{}, f.lists[owner]...)
	if err := fn(&list); err != nil {
		return nil, err
	}
	f.lists[owner] = list
	return list, nil
}

type fakeSettings struct{ byOwner map[string]ai.Settings }

func (f *fakeSettings) Get(_ context.Context, owner string) (ai.Settings, error) {
	s, ok := f.byOwner[owner]
	if !ok {
		return ai.DefaultSettings(), nil
	}
	return s, nil
}

func (f *fakeSettings) Save(_ context.Context, owner string, s ai.Settings) error {
	f.byOwner[owner] = s
	return nil
}

type countingMetrics struct{ registered int }

func (m *countingMetrics) UserRegistered() { m.registered++ }

