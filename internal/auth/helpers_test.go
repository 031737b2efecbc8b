package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scouting-oidc/scouting-oidc/internal/auth/oidctest"
	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

const (
	testSession  = "session-under-test"
	testBaseURL  = "http://localhost:8080"
	testLoginURL = testBaseURL + "/login"
)

// memStore is a StateStore for tests.
type memStore struct {
	mu       sync.Mutex
	attempts map[string]PendingAuthAttempt
	deletes  int
}

func newMemStore() *memStore {
	return &memStore{attempts: make(map[string]PendingAuthAttempt)}
}

func (m *memStore) Save(_ context.Context, sessionID string, attempt *PendingAuthAttempt, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts[sessionID] = *attempt

	return nil
}

func (m *memStore) Load(_ context.Context, sessionID string) (*PendingAuthAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[sessionID]
	if !ok {
		return nil, nil
	}

	return &a, nil
}

func (m *memStore) Consume(_ context.Context, sessionID string) (*PendingAuthAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[sessionID]
	if !ok {
		return nil, nil
	}

	delete(m.attempts, sessionID)

	return &a, nil
}

func (m *memStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes++
	delete(m.attempts, sessionID)

	return nil
}

func (m *memStore) pending(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.attempts[sessionID]

	return ok
}

// setupTestDB creates an in-memory SQLite user store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

func testConfig(p *oidctest.Provider) Config {
	return Config{
		ClientID:              p.ClientID,
		ClientSecret:          p.ClientSecret,
		Issuer:                p.Issuer(),
		RedirectURL:           testBaseURL + "/auth/oidc/callback",
		Scopes:                []string{"openid", "profile", "email"},
		AutoCreateUsers:       true,
		LoginRedirect:         LoginTargetDashboard,
		FieldsToSync:          NewFieldSet(),
		DashboardURL:          testBaseURL + "/dashboard",
		HomeURL:               testBaseURL + "/",
		LoginURL:              testLoginURL,
		PostLogoutRedirectURL: testLoginURL,
		ExchangeTimeout:       5 * time.Second,
		MaxTokenAge:           10 * time.Minute,
		AttemptTTL:            10 * time.Minute,
	}
}

func newTestProvider(t *testing.T, cfg Config, opts ...Option) *OIDCProvider {
	t.Helper()

	p, err := NewOIDCProvider(context.Background(), cfg, opts...)
	require.NoError(t, err)

	return p
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)

	return n
}
