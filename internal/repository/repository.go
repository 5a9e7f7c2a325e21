package repository

import (
	"context"
	"errors"

	"leadcrm/internal/model"
	"leadcrm/internal/scope"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrEmailTaken           = errors.New("email already in use")
)

// Repository is the persistence contract. Scoped methods take a
// scope.Scope and report the relevant NotFound sentinel when the row
// does not exist inside that scope, whether or not it exists at all.
type Repository interface {
	// Account operations. Both create methods insert the user and its
	// organisation or agent row in a single transaction.
	CreateOrganisorAccount(user model.User, org model.Organisation) error
	CreateAgentAccount(user model.User, agent model.Agent) error
	GetUserByID(id uuid.UUID) (model.User, error)
	GetUserByEmail(email string) (model.User, error)

	// Directory operations used by the scope resolver.
	GetOrganisationByID(id uuid.UUID) (model.Organisation, error)
	GetOrganisationByUserID(userID uuid.UUID) (model.Organisation, error)
	GetAgentByUserID(userID uuid.UUID) (model.Agent, error)
	DeleteOrganisation(id uuid.UUID) error

	// Agent operations, always bounded to one organisation.
	ListAgents(organisationID uuid.UUID) ([]model.Agent, error)
	GetAgent(organisationID, id uuid.UUID) (model.Agent, error)
	UpdateAgent(organisationID uuid.UUID, agent model.Agent) error
	DeleteAgent(organisationID, id uuid.UUID) error

	// Lead operations.
	CreateLead(lead model.Lead) error
	ListAssignedLeads(s scope.Scope) ([]model.Lead, error)
	ListUnassignedLeads(organisationID uuid.UUID) ([]model.Lead, error)
	ListLeadsByCategory(s scope.Scope, categoryID uuid.UUID) ([]model.Lead, error)
	GetLead(s scope.Scope, id uuid.UUID) (model.Lead, error)
	UpdateLead(s scope.Scope, lead model.Lead) error
	DeleteLead(s scope.Scope, id uuid.UUID) error
	AssignLead(organisationID, leadID, agentID uuid.UUID) error

	// Category operations.
	CreateCategory(category model.Category) error
	ListCategories(organisationID uuid.UUID) ([]model.Category, error)
	GetCategory(organisationID, id uuid.UUID) (model.Category, error)
	UpdateCategory(organisationID uuid.UUID, category model.Category) error
	DeleteCategory(organisationID, id uuid.UUID) error

	// Dashboard.
	GetLeadStats(organisationID uuid.UUID) (model.LeadStats, error)

	// Database operations.
	Migrate() error
	HealthCheck(ctx context.Context) error
}
