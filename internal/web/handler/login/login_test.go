package login

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/auth/oidctest"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
	"github.com/scouting-oidc/scouting-oidc/internal/web/session"
)

const baseURL = "http://localhost:3000"

// recordingViews is a minimal Fiber Views engine that writes the template name
// and the values the login page uses, one per line.
type recordingViews struct{}

func (recordingViews) Load() error { return nil }

func (recordingViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	m, _ := data.(fiber.Map)

	_, err := fmt.Fprintf(w, "template=%s\nlogin=%v\nerror=%v\nlang=%v\n", name, m["LoginURL"], m["Error"], m["Lang"])

	return err //nolint:wrapcheck
}

func newTestDeps(t *testing.T) *handler.Deps {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	op := oidctest.New(t)

	acfg := auth.Config{
		ClientID:              op.ClientID,
		ClientSecret:          op.ClientSecret,
		Issuer:                op.Issuer(),
		RedirectURL:           baseURL + handler.OIDCCallbackPath,
		Scopes:                []string{"openid"},
		LoginRedirect:         auth.LoginTargetDashboard,
		FieldsToSync:          auth.NewFieldSet(),
		DashboardURL:          baseURL + handler.DashboardPath,
		HomeURL:               baseURL + handler.RootPath,
		LoginURL:              baseURL + handler.LoginPath,
		PostLogoutRedirectURL: baseURL + handler.LoginPath,
		ExchangeTimeout:       5 * time.Second,
		MaxTokenAge:           10 * time.Minute,
		AttemptTTL:            10 * time.Minute,
	}

	provider, err := auth.NewOIDCProvider(context.Background(), acfg)
	require.NoError(t, err)

	session.Init(nil)

	return &handler.Deps{
		Config: &config.Config{
			Title: "Scouting OIDC",
			Webserver: config.Webserver{
				URL:     baseURL,
				Port:    3000,
				Session: config.Session{ExpiryTime: time.Minute},
			},
		},
		DB:   db,
		Auth: auth.NewAuthenticator(acfg, provider, session.NewStorageStateStore(session.Store.Storage), db),
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{Views: recordingViews{}})

	s := &Service{}
	require.NoError(t, s.Init(app, newTestDeps(t)))

	return app
}

func get(t *testing.T, app *fiber.App, target string, header ...string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestInitRequiresDeps(t *testing.T) {
	s := &Service{}

	require.ErrorIs(t, s.Init(nil, nil), handler.ErrNilDeps)
	require.ErrorIs(t, s.Init(fiber.New(), &handler.Deps{}), handler.ErrNilDeps)
}

func TestGet(t *testing.T) {
	failure := func(hint string) string {
		return url.Values{
			auth.ParamErrorDescription: {"access_denied"},
			auth.ParamHint:             {hint},
			auth.ParamMessage:          {"denied"},
		}.Encode()
	}

	tests := []struct {
		name      string
		query     string
		lang      string
		wantError string
		wantLang  string
	}{
		{name: "plain page", wantError: "<nil>", wantLang: "en"},
		{
			name:      "provider denial",
			query:     failure("The user denied the request"),
			wantError: "The user denied the request",
			wantLang:  "en",
		},
		{
			name:      "translated hint",
			query:     failure(auth.HintCreationDisabled),
			lang:      "nl-NL,nl;q=0.9",
			wantError: "De webmaster heeft het aanmaken van nieuwe accounts uitgeschakeld",
			wantLang:  "nl",
		},
		{
			name:      "unknown hint shown verbatim",
			query:     failure("Something odd happened"),
			lang:      "nl",
			wantError: "Something odd happened",
			wantLang:  "nl",
		},
		{
			name:      "description without hint",
			query:     auth.ParamErrorDescription + "=server_error",
			wantError: "server_error",
			wantLang:  "en",
		},
		{name: "unrelated query", query: "foo=bar", wantError: "<nil>", wantLang: "en"},
	}

	app := newTestApp(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := Path
			if tt.query != "" {
				target += "?" + tt.query
			}

			var header []string
			if tt.lang != "" {
				header = []string{fiber.HeaderAcceptLanguage, tt.lang}
			}

			resp, body := get(t, app, target, header...)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			assert.Contains(t, body, "template="+TemplateName+"\n")
			assert.Contains(t, body, "login="+handler.OIDCLoginPath+"\n")
			assert.Contains(t, body, "error="+tt.wantError+"\n")
			assert.Contains(t, body, "lang="+tt.wantLang+"\n")
		})
	}
}

func TestGetLoggedIn(t *testing.T) {
	app := newTestApp(t)

	sessionID, err := session.GenerateSessionID()
	require.NoError(t, err)

	data := &session.Data{User: models.User{ID: 7, ExternalID: "1234567"}}
	require.NoError(t, data.Write(sessionID, time.Minute))

	req := httptest.NewRequest(http.MethodGet, Path, nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.DashboardPath, resp.Header.Get(fiber.HeaderLocation))
}
