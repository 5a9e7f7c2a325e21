package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the account role. A user is either an organisor (owns an
// organisation) or an agent (belongs to one); there is no third state.
type Role string

const (
	RoleOrganisor Role = "organisor"
	RoleAgent     Role = "agent"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsOrganisor() bool {
	return u.Role == RoleOrganisor
}

// Organisation is the scoping record every lead, category and agent
// belongs to. Exactly one exists per organisor user, created in the
// same transaction as the user itself.
type Organisation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent links an agent-role user to its owning organisation.
type Agent struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	CreatedAt      time.Time `json:"created_at"`

	// User is populated on reads that join the account row.
	User User `json:"user"`
}

// Category is a named pipeline stage, e.g. New, Contacted, Converted.
type Category struct {
	ID             uuid.UUID `json:"id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

type Lead struct {
	ID             uuid.UUID  `json:"id"`
	OrganisationID uuid.UUID  `json:"organisation_id"`
	AgentID        *uuid.UUID `json:"agent_id"`
	CategoryID     *uuid.UUID `json:"category_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Age            int        `json:"age"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (l Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

func (l Lead) Assigned() bool {
	return l.AgentID != nil
}

// LeadStats backs the dashboard summary.
type LeadStats struct {
	TotalLeads      int `json:"total_leads"`
	UnassignedLeads int `json:"unassigned_leads"`
	Agents          int `json:"agents"`
	Categories      int `json:"categories"`
}
