package model

import (
	"strings"
	"time"
)

type MemberRole string

const (
	RoleTeamLead MemberRole = "Team Lead"
	RoleMember   MemberRole = "Member"
)

type Team struct {
	ID         string     `json:"id"`
	Name       string     `json:"team_name"`
	Challenge  string     `json:"challenge"`
	CreatedBy  string     `json:"created_by"`
	Members    []*Member  `json:"members"`
	MaxMembers int        `json:"max_members"`
	Locked     bool       `json:"locked"`
	Version    int        `json:"-"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type Member struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Role    MemberRole `json:"role"`
	AddedAt time.Time  `json:"added_at"`
}

// NewMember is the caller-supplied part of a member; id, role and timestamp are assigned by the registry.
type NewMember struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type CreateTeamInput struct {
	TeamName     string       `json:"team_name" validate:"required"`
	Challenge    string       `json:"challenge" validate:"required"`
	CreatorEmail string       `json:"creator_email" validate:"required,email"`
	Members      []*NewMember `json:"members" validate:"required,min=1,dive,required"`
}

// Normalize trims the name and lowercases the email.
func (m *NewMember) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = NormalizeEmail(m.Email)
}

// Normalize trims text fields and normalizes every email, so validation sees
// the values that get stored.
func (in *CreateTeamInput) Normalize() {
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.CreatorEmail = NormalizeEmail(in.CreatorEmail)
	for _, m := range in.Members {
		if m != nil {
			m.Normalize()
		}
	}
}

// HasMember reports whether email is already on the team, ignoring case.
func (t *Team) HasMember(email string) bool {
	email = NormalizeEmail(email)
	for _, m := range t.Members {
		if m.Email == email {
			return true
		}
	}
	return false
}

func (t *Team) Member(id string) *Member {
	for _, m := range t.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (t *Team) Lead() *Member {
	for _, m := range t.Members {
		if m.Role == RoleTeamLead {
			return m
		}
	}
	return nil
}

func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

// IsLead reports whether email identifies the team's creator.
func (t *Team) IsLead(email string) bool {
	return t.CreatedBy == NormalizeEmail(email)
}

// Actor is whoever performs a team mutation. Admins bypass the participant
// gate and the lead identity check, never capacity or lock.
type Actor struct {
	Email string
	Admin bool
}

func AdminActor() Actor {
	return Actor{Admin: true}
}

func LeadActor(email string) Actor {
	return Actor{Email: NormalizeEmail(email)}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
