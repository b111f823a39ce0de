// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// Role is a participant's standing in a room.
type Role string

const (
	RoleListener  Role = "listener"
	RoleSpeaker   Role = "speaker"
	RoleModerator Role = "moderator"
	RoleHost      Role = "host"
)

// CanModerate reports whether the role may perform privileged room actions.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleHost
}

func (r Role) Valid() bool {
	switch r {
	case RoleListener, RoleSpeaker, RoleModerator, RoleHost:
		return true
	}
	return false
}

// ConnState is presence only. It never implies role or queue changes.
type ConnState string

const (
	ConnPush         ConnState = "connected-push"
	ConnPull         ConnState = "connected-pull"
	ConnDisconnected ConnState = "disconnected"
)

type Participant struct {
	UserID   UserID    `json:"user_id"`
	Name     string    `json:"username"`
	Role     Role      `json:"role"`
	Conn     ConnState `json:"connection"`
	Muted    bool      `json:"is_muted"`
	Speaking bool      `json:"is_speaking"`
	Level    int       `json:"level"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"-"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id UserID, name string, role Role, conn ConnState) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	now := time.Now().UTC()
	return &Participant{
		UserID:   id,
		Name:     name,
		Role:     role,
		Conn:     conn,
		JoinedAt: now,
		LastSeen: now,
	}, nil
}

func (p *Participant) SetName(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	p.Name = name
	return nil
}
