package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

const birthdateLayout = "2006-01-02"

// UserResolver maps validated claims to a local user.
type UserResolver struct {
	db *gorm.DB
}

// NewUserResolver returns a resolver on the given user store.
func NewUserResolver(db *gorm.DB) *UserResolver {
	return &UserResolver{db: db}
}

// Resolve looks the user up by subject, never by email. A known user gets its synced fields
// overwritten; an unknown user is created if cfg allows it, otherwise *CreationDisabled is returned.
func (r *UserResolver) Resolve(ctx context.Context, claims *IdentityClaims, cfg Config) (Outcome, error) {
	if claims == nil || claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	db := r.db.WithContext(ctx)
	columns := syncedColumns(claims, cfg.FieldsToSync)

	var user models.User

	err := db.Where("external_id = ?", claims.Subject).First(&user).Error

	switch {
	case err == nil:
		if err = db.Model(&models.User{}).Where("id = ?", user.ID).Updates(columns).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to query user: %w", err)
	case !cfg.AutoCreateUsers:
		return &CreationDisabled{}, nil
	default:
		if err = r.create(db, claims.Subject, columns); err != nil {
			return nil, err
		}
	}

	if err = db.Where("external_id = ?", claims.Subject).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return &Success{User: &user, IDToken: claims.RawIDToken}, nil
}

// create inserts the user or, if a concurrent callback inserted the same subject first,
// updates that row instead. The unique index on external_id makes this a single atomic statement.
func (r *UserResolver) create(db *gorm.DB, subject string, columns map[string]any) error {
	user := models.User{ExternalID: subject}
	applyColumns(&user, columns)

	update := make([]string, 0, len(columns)+1)
	for name := range columns {
		update = append(update, name)
	}

	update = append(update, "updated_at")

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// syncedColumns returns the columns overwritten on every login.
func syncedColumns(claims *IdentityClaims, fields FieldSet) map[string]any {
	columns := map[string]any{
		"email":      claims.Email,
		"first_name": claims.GivenName,
		"infix":      claims.Infix,
		"last_name":  claims.FamilyName,
	}

	if fields.Has(FieldScoutingID) {
		// Scouts Online issues the membership number as subject.
		columns["scouting_id"] = claims.Subject
	}

	if fields.Has(FieldBirthdate) {
		columns["birthdate"] = normalizeBirthdate(claims.Birthdate)
	}

	if fields.Has(FieldGender) {
		columns["gender"] = models.NormalizeGender(claims.Gender)
	}

	return columns
}

func applyColumns(user *models.User, columns map[string]any) {
	for name, value := range columns {
		v, _ := value.(string)

		switch name {
		case "email":
			user.Email = v
		case "first_name":
			user.FirstName = v
		case "infix":
			user.Infix = v
		case "last_name":
			user.LastName = v
		case "scouting_id":
			user.ScoutingID = v
		case "birthdate":
			user.Birthdate = v
		case "gender":
			user.Gender = v
		}
	}
}

// normalizeBirthdate keeps only valid YYYY-MM-DD dates.
func normalizeBirthdate(s string) string {
	if len(s) > len(birthdateLayout) {
		s = s[:len(birthdateLayout)]
	}

	if _, err := time.Parse(birthdateLayout, s); err != nil {
		return ""
	}

	return s
}
