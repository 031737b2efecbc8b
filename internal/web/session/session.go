// Package session keeps logged-in sessions and pending login attempts in a fiber storage.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
	"github.com/scouting-oidc/scouting-oidc/internal/uniuri"
)

const (
	// CookieName holds the id of a logged-in session.
	CookieName = "session"

	// FlowCookieName holds the id the pending login attempt is stored under.
	FlowCookieName = "oidc_flow"

	// ReturnCookieName holds the local path a login was started from.
	ReturnCookieName = "oidc_return"
)

// ErrNoSession is returned by Read if the session does not exist or expired.
var ErrNoSession = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	User models.User
	// IDToken is kept as id_token_hint for the provider logout.
	IDToken string
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session.
func Delete(sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
// A nil storage selects the fiber in-memory storage.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	return uniuri.NewSessionID()
}
