// Package gorm provides GORM models and repositories for users and their
// per-user data.
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/recipe"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for users. EmailKey is the lowercased
// email and carries the uniqueness constraint.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null"`
	EmailKey     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(255);not null"`
	PasswordHash string    `gorm:"type:varchar(255)"`
	Provider     string    `gorm:"type:varchar(20)"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName overrides the table name
func (UserModel) TableName() string { return "users" }

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CookbookEntryModel is one saved recipe.
type CookbookEntryModel struct {
	Owner      string      `gorm:"type:varchar(255);primaryKey"`
	RecipeID   string      `gorm:"type:varchar(255);primaryKey"`
	Name       string      `gorm:"type:varchar(255);not null"`
	Recipe     RecipeJSON  `gorm:"type:text;not null"`
	Notes      string      `gorm:"type:text"`
	Categories StringSlice `gorm:"type:text"`
	Tags       StringSlice `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the table name
func (CookbookEntryModel) TableName() string { return "cookbook_entries" }

// UserStatsModel holds per-user counters.
type UserStatsModel struct {
	Owner       string `gorm:"type:varchar(255);primaryKey"`
	CookedCount int    `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

// TableName overrides the table name
func (UserStatsModel) TableName() string { return "user_stats" }

// RestrictionListModel stores the ordered restriction list.
type RestrictionListModel struct {
	Owner     string      `gorm:"type:varchar(255);primaryKey"`
	Items     StringSlice `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName overrides the table name
func (RestrictionListModel) TableName() string { return "restriction_lists" }

// SettingsModel stores provider settings. APIKeys values are ciphertext.
type SettingsModel struct {
	Owner     string    `gorm:"type:varchar(255);primaryKey"`
	Provider  string    `gorm:"type:varchar(20)"`
	Language  string    `gorm:"type:varchar(50)"`
	APIKeys   StringMap `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName overrides the table name
func (SettingsModel) TableName() string { return "ai_settings" }

// ownerKey normalises the email that namespaces per-user rows.
func ownerKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// StringMap stores a string map as JSON text.
type StringMap map[string]string

// Scan implements the sql.Scanner interface
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into StringMap", value)
	}
}

// Value implements the driver.Valuer interface
func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// RecipeJSON stores a recipe as JSON text.
type RecipeJSON recipe.Recipe

// Scan implements the sql.Scanner interface
func (r *RecipeJSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RecipeJSON", value)
	}

	var out recipe.Recipe
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*r = RecipeJSON(out)
	return nil
}

// Value implements the driver.Valuer interface
func (r RecipeJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(recipe.Recipe(r))
	return string(b), err
}
