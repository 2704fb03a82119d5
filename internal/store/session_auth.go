package store

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pavelanni/smartstudy/internal/model"
)

const authSessionTTL = 24 * time.Hour

// CreateAuthSession creates a new auth session token for a user.
func (s *Store) CreateAuthSession(userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	sessions, err := s.sessions.LoadAll()
	if err != nil {
		return "", err
	}
	now := time.Now()
	sessions = append(pruneExpired(sessions, now), model.AuthSession{
		ID:        token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(authSessionTTL),
	})
	if err := s.sessions.SaveAll(sessions); err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession returns the auth session for the given token, or nil if not found/expired.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	sessions, err := s.sessions.LoadAll()
	if err != nil {
		return nil, err
	}
	sess := findOne(sessions, func(a model.AuthSession) bool { return a.ID == token })
	if sess == nil {
		return nil, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(token)
		return nil, nil
	}
	return sess, nil
}

// AuthSessionIDs returns the tokens of all unexpired sessions.
func (s *Store) AuthSessionIDs() (map[string]bool, error) {
	sessions, err := s.sessions.LoadAll()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make(map[string]bool, len(sessions))
	for _, a := range sessions {
		if now.Before(a.ExpiresAt) {
			ids[a.ID] = true
		}
	}
	return ids, nil
}

// DeleteAuthSession removes a session token.
func (s *Store) DeleteAuthSession(token string) error {
	sessions, err := s.sessions.LoadAll()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, a := range sessions {
		if a.ID != token {
			kept = append(kept, a)
		}
	}
	return s.sessions.SaveAll(kept)
}

// CleanupExpiredSessions removes all expired auth sessions.
func (s *Store) CleanupExpiredSessions() error {
	sessions, err := s.sessions.LoadAll()
	if err != nil {
		return err
	}
	return s.sessions.SaveAll(pruneExpired(sessions, time.Now()))
}

func pruneExpired(sessions []model.AuthSession, now time.Time) []model.AuthSession {
	kept := sessions[:0]
	for _, a := range sessions {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		}
	}
	return kept
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
