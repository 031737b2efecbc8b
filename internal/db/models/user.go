package models

import (
	"strings"
	"time"
)

// Gender values stored for a user. Any other claim value is stored as GenderUnknown.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

// User represents a local account linked to exactly one identity provider subject.
// Accounts are created on first login (if enabled) and their profile fields are
// refreshed from the id token on every following login.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// ExternalID is the stable subject identifier (sub claim) issued by the identity provider.
	ExternalID string `gorm:"uniqueIndex;size:255;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// FirstName is the user's given name.
	FirstName string `gorm:"size:100"`
	// Infix is the name particle between first and last name (e.g. "van der").
	Infix string `gorm:"size:50"`
	// LastName is the user's family name.
	LastName string `gorm:"size:100"`
	// ScoutingID is the membership number, only kept if synchronization is enabled.
	ScoutingID string `gorm:"size:50"`
	// Birthdate in YYYY-MM-DD, only kept if synchronization is enabled.
	Birthdate string `gorm:"size:10"`
	// Gender is one of male, female, other or unknown.
	Gender string `gorm:"size:10"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// DisplayName joins the non-empty name parts.
func (u User) DisplayName() string {
	parts := make([]string, 0, 3)

	for _, p := range []string{u.FirstName, u.Infix, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return u.Email
	}

	return strings.Join(parts, " ")
}

// NormalizeGender maps a gender claim to one of the stored gender values.
func NormalizeGender(claim string) string {
	switch strings.ToLower(strings.TrimSpace(claim)) {
	case "m", GenderMale:
		return GenderMale
	case "f", "v", GenderFemale:
		return GenderFemale
	case "o", GenderOther:
		return GenderOther
	default:
		return GenderUnknown
	}
}
