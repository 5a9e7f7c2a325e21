// Package scope is the access-control layer. It resolves an
// authenticated user into a Requester and computes the row set that
// requester may read or mutate for each record type. Every repository
// query takes a Scope, so list, detail and write operations share one
// filter and a record outside scope is indistinguishable from a record
// that does not exist.
package scope

import (
	"fmt"

	"leadcrm/internal/model"

	"github.com/google/uuid"
)

// Scope restricts queries to one organisation and, when AgentID is
// set, to rows assigned to that agent.
type Scope struct {
	OrganisationID uuid.UUID
	AgentID        *uuid.UUID
}

// Requester is an authenticated user together with its organisation
// and, for agent-role users, its agent record.
type Requester struct {
	User         model.User
	Organisation model.Organisation
	Agent        *model.Agent
}

func (r Requester) IsOrganisor() bool {
	return r.User.IsOrganisor()
}

// LeadScope is the row set of leads the requester may see. Organisors
// see their whole organisation; agents only leads assigned to them.
func (r Requester) LeadScope() Scope {
	s := Scope{OrganisationID: r.Organisation.ID}
	if r.Agent != nil {
		agentID := r.Agent.ID
		s.AgentID = &agentID
	}
	return s
}

// CategoryScope is organisation-wide for both roles: agents share the
// organisation's pipeline catalog even though their lead view is
// restricted.
func (r Requester) CategoryScope() Scope {
	return Scope{OrganisationID: r.Organisation.ID}
}

// Directory is the subset of the repository the resolver needs.
type Directory interface {
	GetOrganisationByID(id uuid.UUID) (model.Organisation, error)
	GetOrganisationByUserID(userID uuid.UUID) (model.Organisation, error)
	GetAgentByUserID(userID uuid.UUID) (model.Agent, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps a user onto its Requester. For organisors the
// organisation is the one they own; for agents it is the organisation
// their agent record belongs to.
func (r *Resolver) Resolve(user model.User) (Requester, error) {
	switch user.Role {
	case model.RoleOrganisor:
		org, err := r.dir.GetOrganisationByUserID(user.ID)
		if err != nil {
			return Requester{}, fmt.Errorf("failed to resolve organisation for user %s: %w", user.ID, err)
		}
		return Requester{User: user, Organisation: org}, nil

	case model.RoleAgent:
		agent, err := r.dir.GetAgentByUserID(user.ID)
		if err != nil {
			return Requester{}, fmt.Errorf("failed to resolve agent for user %s: %w", user.ID, err)
		}
		org, err := r.dir.GetOrganisationByID(agent.OrganisationID)
		if err != nil {
			return Requester{}, fmt.Errorf("failed to resolve organisation %s: %w", agent.OrganisationID, err)
		}
		return Requester{User: user, Organisation: org, Agent: &agent}, nil

	default:
		return Requester{}, fmt.Errorf("unknown role %q for user %s", user.Role, user.ID)
	}
}
