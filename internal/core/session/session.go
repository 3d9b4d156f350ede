// Package session owns the authenticated principal of the console.
//
// A Model keeps one logical session in two storage locations: a cookie store
// holding the JSON session object and a token store holding the bearer and
// refresh tokens. Only the Model writes to either store; everything else reads
// through Snapshot.
package session

import (
	"encoding/json"
	"fmt"

	"einvoice-console/internal/core/domain"
)

// Session is the authenticated principal
type Session struct {
	ID           string      `json:"id"`
	Identity     string      `json:"identity"`
	DisplayName  string      `json:"displayName,omitempty"`
	Role         domain.Role `json:"role"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *Session) validate() error {
	if s.Identity == "" || s.AccessToken == "" {
		return domain.ErrSessionIncomplete
	}
	return nil
}

func encode(s *Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(raw string) (*Session, error) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionCorrupt, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionCorrupt, err)
	}
	return &s, nil
}

// State is the login state of a Model
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// EventKind identifies a session transition
type EventKind int

const (
	// EventLoggedIn follows a successful Login
	EventLoggedIn EventKind = iota + 1
	// EventRestored follows Reconcile hydrating a session found in storage
	EventRestored
	// EventLoggedOut follows any transition to LoggedOut
	EventLoggedOut
)

// Reasons carried by EventLoggedOut
const (
	ReasonLogout           = "logout"
	ReasonForced           = "forced"
	ReasonInconsistent     = "inconsistent_storage"
	ReasonCorrupt          = "corrupt_storage"
	ReasonLoginFailed      = "login_failed"
	ReasonTokenInvalidated = "token_invalidated" // backend refused the bearer token
)

// Event is published to subscribers after every transition
type Event struct {
	Kind EventKind
	// Session is the session entered (login/restore) or left (logout)
	Session *Session
	Reason  string
}
