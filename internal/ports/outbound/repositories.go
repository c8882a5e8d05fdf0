// Package outbound defines the interfaces the application uses to reach
// storage, caches and AI vendors.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
)

// CookbookRepository stores saved recipes per owner email.
type CookbookRepository interface {
	// Upsert stores entry under (owner, entry.ID). It reports whether an
	// existing entry was overwritten.
	Upsert(ctx context.Context, owner string, entry recipe.SavedRecipe) (bool, error)
	// Delete reports whether an entry was removed.
	Delete(ctx context.Context, owner, id string) (bool, error)
	Get(ctx context.Context, owner, id string) (*recipe.SavedRecipe, error)
	List(ctx context.Context, owner string) ([]recipe.SavedRecipe, error)
	// ReplaceAll swaps the owner's whole cookbook in one transaction.
	ReplaceAll(ctx context.Context, owner string, entries []recipe.SavedRecipe) error
}

// StatsRepository keeps per-owner counters.
type StatsRepository interface {
	IncrementCooked(ctx context.Context, owner string) (int, error)
	CookedCount(ctx context.Context, owner string) (int, error)
}

// UserRepository stores accounts. Email lookups are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	// FindFirstByEmailSuffix returns the oldest account whose email ends
	// with suffix.
	FindFirstByEmailSuffix(ctx context.Context, suffix string) (*user.User, error)
	// Update saves u, which was stored under previousEmail. When the email
	// changes every per-owner row moves with it.
	Update(ctx context.Context, previousEmail string, u *user.User) error
}

// RestrictionRepository stores the ordered restriction list per owner.
type RestrictionRepository interface {
	Get(ctx context.Context, owner string) (user.Restrictions, error)
	// Modify runs fn on the current list inside a transaction and persists
	// the result unless fn fails. Concurrent calls for one owner serialise.
	Modify(ctx context.Context, owner string, fn func(*user.Restrictions) error) (user.Restrictions, error)
}

// SettingsRepository stores provider settings per owner. API keys are
// encrypted before they reach storage.
type SettingsRepository interface {
	// Get returns DefaultSettings when the owner has none.
	Get(ctx context.Context, owner string) (ai.Settings, error)
	Save(ctx context.Context, owner string, s ai.Settings) error
}

// SecretCipher encrypts small secrets such as API keys.
type SecretCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Increment bumps a counter. A new counter expires after ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// StorageService uploads generated media and returns its public URL.
type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
