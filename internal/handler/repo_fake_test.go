package handler

import (
	"context"
	"sync"

	"leadcrm/internal/model"
	"leadcrm/internal/repository"
	"leadcrm/internal/scope"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository with the same scoping and
// cascade semantics as the Postgres implementation.
type fakeRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]model.User
	orgs   map[uuid.UUID]model.Organisation
	agents map[uuid.UUID]model.Agent
	cats   map[uuid.UUID]model.Category
	leads  map[uuid.UUID]model.Lead

	userLookups int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  make(map[uuid.UUID]model.User),
		orgs:   make(map[uuid.UUID]model.Organisation),
		agents: make(map[uuid.UUID]model.Agent),
		cats:   make(map[uuid.UUID]model.Category),
		leads:  make(map[uuid.UUID]model.Lead),
	}
}

var _ repository.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) emailTaken(email string) bool {
	for _, u := range r.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (r *fakeRepo) CreateOrganisorAccount(user model.User, org model.Organisation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email) {
		return repository.ErrEmailTaken
	}
	r.users[user.ID] = user
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeRepo) CreateAgentAccount(user model.User, agent model.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email) {
		return repository.ErrEmailTaken
	}
	r.users[user.ID] = user
	agent.User = user
	r.agents[agent.ID] = agent
	return nil
}

func (r *fakeRepo) GetUserByID(id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userLookups++
	user, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeRepo) GetUserByEmail(email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (r *fakeRepo) GetOrganisationByID(id uuid.UUID) (model.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[id]
	if !ok {
		return model.Organisation{}, repository.ErrOrganisationNotFound
	}
	return org, nil
}

func (r *fakeRepo) GetOrganisationByUserID(userID uuid.UUID) (model.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, org := range r.orgs {
		if org.UserID == userID {
			return org, nil
		}
	}
	return model.Organisation{}, repository.ErrOrganisationNotFound
}

func (r *fakeRepo) GetAgentByUserID(userID uuid.UUID) (model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range r.agents {
		if agent.UserID == userID {
			return agent, nil
		}
	}
	return model.Agent{}, repository.ErrAgentNotFound
}

func (r *fakeRepo) DeleteOrganisation(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[id]
	if !ok {
		return repository.ErrOrganisationNotFound
	}
	for agentID, agent := range r.agents {
		if agent.OrganisationID == id {
			delete(r.users, agent.UserID)
			delete(r.agents, agentID)
		}
	}
	for catID, cat := range r.cats {
		if cat.OrganisationID == id {
			delete(r.cats, catID)
		}
	}
	for leadID, lead := range r.leads {
		if lead.OrganisationID == id {
			delete(r.leads, leadID)
		}
	}
	delete(r.users, org.UserID)
	delete(r.orgs, id)
	return nil
}

func (r *fakeRepo) ListAgents(organisationID uuid.UUID) ([]model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var agents []model.Agent
	for _, agent := range r.agents {
		if agent.OrganisationID == organisationID {
			agents = append(agents, agent)
		}
	}
	return agents, nil
}

func (r *fakeRepo) GetAgent(organisationID, id uuid.UUID) (model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok || agent.OrganisationID != organisationID {
		return model.Agent{}, repository.ErrAgentNotFound
	}
	return agent, nil
}

func (r *fakeRepo) UpdateAgent(organisationID uuid.UUID, agent model.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.agents[agent.ID]
	if !ok || existing.OrganisationID != organisationID {
		return repository.ErrAgentNotFound
	}
	user := r.users[existing.UserID]
	user.Email = agent.User.Email
	user.FirstName = agent.User.FirstName
	user.LastName = agent.User.LastName
	r.users[user.ID] = user
	existing.User = user
	r.agents[agent.ID] = existing
	return nil
}

func (r *fakeRepo) DeleteAgent(organisationID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok || agent.OrganisationID != organisationID {
		return repository.ErrAgentNotFound
	}
	delete(r.users, agent.UserID)
	delete(r.agents, id)
	for leadID, lead := range r.leads {
		if lead.AgentID != nil && *lead.AgentID == id {
			lead.AgentID = nil
			r.leads[leadID] = lead
		}
	}
	return nil
}

func (r *fakeRepo) CreateLead(lead model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[lead.ID] = lead
	return nil
}

func leadInScope(lead model.Lead, s scope.Scope) bool {
	if lead.OrganisationID != s.OrganisationID {
		return false
	}
	if s.AgentID != nil && (lead.AgentID == nil || *lead.AgentID != *s.AgentID) {
		return false
	}
	return true
}

func (r *fakeRepo) ListAssignedLeads(s scope.Scope) ([]model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var leads []model.Lead
	for _, lead := range r.leads {
		if lead.AgentID != nil && leadInScope(lead, s) {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func (r *fakeRepo) ListUnassignedLeads(organisationID uuid.UUID) ([]model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var leads []model.Lead
	for _, lead := range r.leads {
		if lead.OrganisationID == organisationID && lead.AgentID == nil {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func (r *fakeRepo) ListLeadsByCategory(s scope.Scope, categoryID uuid.UUID) ([]model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var leads []model.Lead
	for _, lead := range r.leads {
		if leadInScope(lead, s) && lead.CategoryID != nil && *lead.CategoryID == categoryID {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func (r *fakeRepo) GetLead(s scope.Scope, id uuid.UUID) (model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok || !leadInScope(lead, s) {
		return model.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (r *fakeRepo) UpdateLead(s scope.Scope, lead model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.leads[lead.ID]
	if !ok || !leadInScope(existing, s) {
		return repository.ErrLeadNotFound
	}
	existing.FirstName = lead.FirstName
	existing.LastName = lead.LastName
	existing.Age = lead.Age
	existing.Description = lead.Description
	existing.CategoryID = lead.CategoryID
	r.leads[lead.ID] = existing
	return nil
}

func (r *fakeRepo) DeleteLead(s scope.Scope, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok || !leadInScope(lead, s) {
		return repository.ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeRepo) AssignLead(organisationID, leadID, agentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[leadID]
	if !ok || lead.OrganisationID != organisationID {
		return repository.ErrLeadNotFound
	}
	agent, ok := r.agents[agentID]
	if !ok || agent.OrganisationID != organisationID {
		return repository.ErrLeadNotFound
	}
	lead.AgentID = &agentID
	r.leads[leadID] = lead
	return nil
}

func (r *fakeRepo) CreateCategory(category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cats[category.ID] = category
	return nil
}

func (r *fakeRepo) ListCategories(organisationID uuid.UUID) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var categories []model.Category
	for _, cat := range r.cats {
		if cat.OrganisationID == organisationID {
			categories = append(categories, cat)
		}
	}
	return categories, nil
}

func (r *fakeRepo) GetCategory(organisationID, id uuid.UUID) (model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.cats[id]
	if !ok || cat.OrganisationID != organisationID {
		return model.Category{}, repository.ErrCategoryNotFound
	}
	return cat, nil
}

func (r *fakeRepo) UpdateCategory(organisationID uuid.UUID, category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.cats[category.ID]
	if !ok || existing.OrganisationID != organisationID {
		return repository.ErrCategoryNotFound
	}
	existing.Name = category.Name
	r.cats[category.ID] = existing
	return nil
}

func (r *fakeRepo) DeleteCategory(organisationID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.cats[id]
	if !ok || cat.OrganisationID != organisationID {
		return repository.ErrCategoryNotFound
	}
	delete(r.cats, id)
	for leadID, lead := range r.leads {
		if lead.CategoryID != nil && *lead.CategoryID == id {
			lead.CategoryID = nil
			r.leads[leadID] = lead
		}
	}
	return nil
}

func (r *fakeRepo) GetLeadStats(organisationID uuid.UUID) (model.LeadStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats model.LeadStats
	for _, lead := range r.leads {
		if lead.OrganisationID == organisationID {
			stats.TotalLeads++
			if lead.AgentID == nil {
				stats.UnassignedLeads++
			}
		}
	}
	for _, agent := range r.agents {
		if agent.OrganisationID == organisationID {
			stats.Agents++
		}
	}
	for _, cat := range r.cats {
		if cat.OrganisationID == organisationID {
			stats.Categories++
		}
	}
	return stats, nil
}

func (r *fakeRepo) Migrate() error                          { return nil }
func (r *fakeRepo) HealthCheck(_ context.Context) error     { return nil }
