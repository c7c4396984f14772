package replica

import (
	"net/http"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"tripsync/pkg/logger"
)

// SessionConfig is the identity-independent part of a session's replica
// wiring.
type SessionConfig struct {
	// BasePath is the directory under which each identity gets its own
	// replica store.
	BasePath   string
	PushURL    string
	PullURL    string
	HTTPClient *http.Client
}

// Session owns the replica for the currently authenticated identity. It is
// the explicit lifecycle owner: a replica is constructed on login, disposed
// on logout or identity change, and absent (nil) when nobody is signed in —
// which callers treat as a legitimate checked state, not an error.
type Session struct {
	cfg SessionConfig

	mu  sync.Mutex
	rep *Replica
}

// NewSession returns a session with no active identity.
func NewSession(cfg SessionConfig) *Session {
	return &Session{cfg: cfg}
}

// SetIdentity switches the session to userID. The previous replica, if
// any, is closed first; its un-pushed mutations stay on disk under the old
// identity's path. An empty userID means logged out.
func (s *Session) SetIdentity(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rep != nil && s.rep.UserID() == userID {
		return nil
	}
	if s.rep != nil {
		logger.Info("session_replica_disposed", "user", s.rep.UserID())
		if err := s.rep.Close(); err != nil {
			return err
		}
		s.rep = nil
	}
	if userID == "" {
		return nil
	}
	rep, err := Open(Options{
		Path:       filepath.Join(s.cfg.BasePath, userID),
		UserID:     userID,
		ClientID:   uuid.NewString(),
		PushURL:    s.cfg.PushURL,
		PullURL:    s.cfg.PullURL,
		HTTPClient: s.cfg.HTTPClient,
	})
	if err != nil {
		return err
	}
	s.rep = rep
	return nil
}

// Replica returns the active replica, or nil when no identity is set.
func (s *Session) Replica() *Replica {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rep
}

// Close disposes the active replica, if any.
func (s *Session) Close() error {
	return s.SetIdentity("")
}
