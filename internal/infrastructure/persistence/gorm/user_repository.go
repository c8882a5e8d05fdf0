package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/Aethermaxx/ChefCulina/internal/domain/user"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"gorm.io/gorm"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

var _ outbound.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	model := userToModel(u)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, model.EmailKey)
		if err != nil {
			return err
		}
		if taken {
			return user.ErrEmailExists
		}

		if err := tx.Create(model).Error; err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailExists
			}
			return err
		}

		u.CreatedAt = model.CreatedAt
		u.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// FindByEmail finds a user by email, ignoring case
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel

	result := r.db.WithContext(ctx).First(&model, "email_key = ?", ownerKey(email))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, result.Error
	}

	return modelToUser(&model), nil
}

// FindFirstByEmailSuffix returns the oldest account whose email ends with
// suffix.
func (r *UserRepository) FindFirstByEmailSuffix(ctx context.Context, suffix string) (*user.User, error) {
	var model UserModel

	result := r.db.WithContext(ctx).
		Where("email_key LIKE ?", "%"+ownerKey(suffix)).
		Order("created_at ASC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, result.Error
	}

	return modelToUser(&model), nil
}

// Update saves u. When the email changes every per-user row moves to the
// new key in the same transaction.
func (r *UserRepository) Update(ctx context.Context, previousEmail string, u *user.User) error {
	oldKey := ownerKey(previousEmail)
	newKey := ownerKey(u.Email)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model UserModel
		if err := tx.First(&model, "email_key = ?", oldKey).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrUserNotFound
			}
			return err
		}

		if newKey != oldKey {
			taken, err := emailTaken(tx, newKey)
			if err != nil {
				return err
			}
			if taken {
				return user.ErrEmailExists
			}
		}

		model.Name = u.Name
		model.Email = strings.TrimSpace(u.Email)
		model.EmailKey = newKey
		model.PasswordHash = u.PasswordHash
		model.Provider = string(u.Provider)
		if err := tx.Save(&model).Error; err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailExists
			}
			return err
		}

		if newKey != oldKey {
			if err := moveOwner(tx, oldKey, newKey); err != nil {
				return err
			}
		}

		u.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// moveOwner re-keys every per-user table from one owner to another.
func moveOwner(tx *gorm.DB, from, to string) error {
	tables := []interface{}{
		&CookbookEntryModel{},
		&UserStatsModel{},
		&RestrictionListModel{},
		&SettingsModel{},
	}
	for _, table := range tables {
		// Rows left behind under the new key by an earlier account would
		// collide with the moved ones.
		if err := tx.Where("owner = ?", to).Delete(table).Error; err != nil {
			return err
		}
		if err := tx.Model(table).Where("owner = ?", from).Update("owner", to).Error; err != nil {
			return err
		}
	}
	return nil
}

func emailTaken(tx *gorm.DB, key string) (bool, error) {
	var count int64
	if err := tx.Model(&UserModel{}).Where("email_key = ?", key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func userToModel(u *user.User) *UserModel {
	return &UserModel{
		Email:        strings.TrimSpace(u.Email),
		EmailKey:     ownerKey(u.Email),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Provider:     string(u.Provider),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func modelToUser(m *UserModel) *user.User {
	return &user.User{
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Provider:     user.SocialProvider(m.Provider),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
