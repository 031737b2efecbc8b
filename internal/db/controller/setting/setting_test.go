package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// every pooled connection would open its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedSettings inserts test data into the database.
func seedSettings(t *testing.T, db *gorm.DB, settings []models.Setting) {
	t.Helper()
	for _, setting := range settings {
		err := db.Create(&setting).Error
		require.NoError(t, err, "failed to seed test data")
	}
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		seedData      []models.Setting
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:        "successful get",
			dbParam:     db,
			settingName: "scouting_oidc_client_id",
			seedData: []models.Setting{
				{Name: "scouting_oidc_client_id", Value: []byte("client-123")},
			},
			expectedValue: []byte("client-123"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Clean database for each test
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM settings")
			}

			if tc.seedData != nil {
				seedSettings(t, tc.dbParam, tc.seedData)
			}

			setting, err := Get(tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)
			} else {
				require.NoError(t, err)
				require.NotNil(t, setting)
				assert.Equal(t, tc.settingName, setting.Name)
				assert.Equal(t, tc.expectedValue, setting.Value)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{{Name: "scouting_oidc_scopes", Value: []byte("openid email")}})

	value, ok, err := Lookup(db, "scouting_oidc_scopes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "openid email", value)

	value, ok, err = Lookup(db, "scouting_oidc_missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	_, _, err = Lookup(nil, "x")
	require.ErrorIs(t, err, ErrDBNil)
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{
		{Name: "scouting_oidc_scopes", Value: []byte("openid")},
		{Name: "scouting_oidc_client_id", Value: []byte("client")},
		{Name: "scoutingXoidcXfake", Value: []byte("must not match the underscore")},
		{Name: "site_name", Value: []byte("My Site")},
	})

	testCases := []struct {
		name          string
		prefix        string
		expectedNames []string
	}{
		{
			name:          "prefix with underscores matches literally",
			prefix:        "scouting_oidc_",
			expectedNames: []string{"scouting_oidc_client_id", "scouting_oidc_scopes"},
		},
		{
			name:          "empty prefix lists all",
			prefix:        "",
			expectedNames: []string{"scoutingXoidcXfake", "scouting_oidc_client_id", "scouting_oidc_scopes", "site_name"},
		},
		{
			name:   "no match",
			prefix: "unknown_",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings, err := List(db, tc.prefix)
			require.NoError(t, err)

			names := make([]string, 0, len(settings))
			for _, s := range settings {
				names = append(names, s.Name)
			}

			assert.ElementsMatch(t, tc.expectedNames, names)
		})
	}

	_, err := List(nil, "")
	require.ErrorIs(t, err, ErrDBNil)
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		value         []byte
		seedData      []models.Setting
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:        "create new setting",
			dbParam:     db,
			settingName: "scouting_oidc_user_auto_create",
			value:       []byte("1"),
		},
		{
			name:        "update existing setting",
			dbParam:     db,
			settingName: "scouting_oidc_login_redirect",
			value:       []byte("frontpage"),
			seedData: []models.Setting{
				{Name: "scouting_oidc_login_redirect", Value: []byte("dashboard")},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM settings")
			}

			if tc.seedData != nil {
				seedSettings(t, tc.dbParam, tc.seedData)
			}

			setting, err := Set(tc.dbParam, tc.settingName, tc.value)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.value, setting.Value)

			var count int64
			tc.dbParam.Model(&models.Setting{}).Where(nameQueryPattern, tc.settingName).Count(&count)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestDeleteByName(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, []models.Setting{{Name: "scouting_oidc_user_gender", Value: []byte("1")}})

	require.NoError(t, DeleteByName(db, "scouting_oidc_user_gender"))
	require.ErrorIs(t, DeleteByName(db, "scouting_oidc_user_gender"), ErrSettingNotFound)
	require.ErrorIs(t, DeleteByName(db, ""), ErrSettingNameEmpty)
	require.ErrorIs(t, DeleteByName(nil, "x"), ErrDBNil)
}
