package gorm

import (
	"context"
	"errors"
	"sync"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RestrictionRepository stores dietary restriction lists.
type RestrictionRepository struct {
	db *gorm.DB
	// mu serialises read-modify-write cycles within this process. Postgres
	// additionally takes a row lock.
	mu sync.Mutex
}

var _ outbound.RestrictionRepository = (*RestrictionRepository)(nil)

// NewRestrictionRepository creates a new restriction repository
func NewRestrictionRepository(db *gorm.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// Get returns the owner's list, empty when none was stored.
func (r *RestrictionRepository) Get(ctx context.Context, owner string) (user.Restrictions, error) {
	var model RestrictionListModel

	err := r.db.WithContext(ctx).First(&model, "owner = ?", ownerKey(owner)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.Restrictions{}, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Restrictions(model.Items), nil
}

// Modify applies fn to the stored list and saves the result.
func (r *RestrictionRepository) Modify(ctx context.Context, owner string, fn func(*user.Restrictions) error) (user.Restrictions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ownerKey(owner)
	var result user.Restrictions

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var model RestrictionListModel
		err := q.First(&model, "owner = ?", key).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		list := user.Restrictions(model.Items)
		if list == nil {
			list = user.Restrictions{}
		}
		if err := fn(&list); err != nil {
			return err
		}

		model.Owner = key
		model.Items = StringSlice(list)
		if err := tx.Save(&model).Error; err != nil {
			return err
		}

		result = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettingsRepository stores provider settings with encrypted API keys.
type SettingsRepository struct {
	db     *gorm.DB
	cipher outbound.SecretCipher
	logger *zap.Logger
}

var _ outbound.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a settings repository encrypting keys with
// cipher.
func NewSettingsRepository(db *gorm.DB, cipher outbound.SecretCipher, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{db: db, cipher: cipher, logger: logger}
}

// Get returns the owner's settings or the defaults. Keys that no longer
// decrypt are dropped.
func (r *SettingsRepository) Get(ctx context.Context, owner string) (ai.Settings, error) {
	var model SettingsModel

	err := r.db.WithContext(ctx).First(&model, "owner = ?", ownerKey(owner)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ai.DefaultSettings(), nil
	}
	if err != nil {
		return ai.Settings{}, err
	}

	settings := ai.Settings{
		Provider: ai.Provider(model.Provider),
		Language: model.Language,
		APIKeys:  make(map[ai.Provider]string, len(model.APIKeys)),
	}
	for provider, sealed := range model.APIKeys {
		plain, err := r.cipher.DecryptString(sealed)
		if err != nil {
			r.logger.Warn("Dropping undecryptable API key",
				zap.String("provider", provider),
				zap.Error(err))
			continue
		}
		settings.APIKeys[ai.Provider(provider)] = plain
	}

	return settings.Normalize(), nil
}

// Save stores s after normalising it.
func (r *SettingsRepository) Save(ctx context.Context, owner string, s ai.Settings) error {
	s = s.Normalize()

	keys := make(StringMap, len(s.APIKeys))
	for provider, plain := range s.APIKeys {
		sealed, err := r.cipher.EncryptString(plain)
		if err != nil {
			return err
		}
		keys[string(provider)] = sealed
	}

	return r.db.WithContext(ctx).Save(&SettingsModel{
		Owner:    ownerKey(owner),
		Provider: string(s.Provider),
		Language: s.Language,
		APIKeys:  keys,
	}).Error
}
