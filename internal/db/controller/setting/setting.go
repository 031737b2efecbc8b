// Package setting provides CRUD operations for managing application settings.
package setting

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting
	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, result.Error
	}

	return &setting, nil
}

// Lookup returns the value of a setting as string. The bool reports whether the setting exists.
func Lookup(db *gorm.DB, name string) (string, bool, error) {
	s, err := Get(db, name)
	if errors.Is(err, ErrSettingNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return string(s.Value), true, nil
}

// List retrieves all settings whose name starts with prefix, ordered by name.
// An empty prefix returns every setting.
func List(db *gorm.DB, prefix string) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Order("name")
	if prefix != "" {
		query = query.Where("name LIKE ? ESCAPE '!'", escapeLike(prefix)+"%")
	}

	var settings []models.Setting
	if err := query.Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Set creates or updates a setting by name (upsert operation).
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	setting := &models.Setting{Name: name, Value: value}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return Get(db, name)
}

// DeleteByName deletes a setting by name.
func DeleteByName(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}
	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
