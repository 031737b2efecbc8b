// Package models contains database model definitions.
package models

// Setting represents a configuration setting stored in the database.
// Identity provider settings are stored under the scouting_oidc_ prefix.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:191"`
	Value []byte
}

// All returns every model managed by the migration.
func All() []any {
	return []any{&User{}, &Setting{}}
}
