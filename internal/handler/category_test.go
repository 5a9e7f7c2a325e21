package handler

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentSeesFullCategoryCatalog(t *testing.T) {
	env := newTestEnv(t)
	_, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	agentUser, _ := env.seedAgent(t, "agent@acme.com", org)
	env.seedCategory(t, org, "New")
	env.seedCategory(t, org, "Contacted")

	_, otherOrg := env.seedOrganisation(t, "owner@globex.com", "Globex")
	env.seedCategory(t, otherOrg, "Globex Pipeline")

	cookie := env.login(t, agentUser.Email, testPassword)
	resp := env.get(t, "/categories", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	page := body(t, resp)
	assert.Contains(t, page, "New")
	assert.Contains(t, page, "Contacted", "the catalog is organisation-wide, not narrowed per agent")
	assert.NotContains(t, page, "Globex Pipeline")
}

func TestShowCategoryNarrowsLeadsToRequesterScope(t *testing.T) {
	env := newTestEnv(t)
	owner, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	agentUser, agent := env.seedAgent(t, "agent@acme.com", org)
	_, peer := env.seedAgent(t, "peer@acme.com", org)
	category := env.seedCategory(t, org, "Contacted")

	mine := env.seedLead(t, org, &agent.ID, "Mine", "Lead")
	mine.CategoryID = &category.ID
	require.NoError(t, env.repo.UpdateLead(ownerScope(org.ID), mine))

	peers := env.seedLead(t, org, &peer.ID, "Peers", "Lead")
	peers.CategoryID = &category.ID
	require.NoError(t, env.repo.UpdateLead(ownerScope(org.ID), peers))

	path := "/categories/" + category.ID.String()

	ownerCookie := env.login(t, owner.Email, testPassword)
	page := body(t, env.get(t, path, ownerCookie))
	assert.Contains(t, page, "Mine Lead")
	assert.Contains(t, page, "Peers Lead")

	agentCookie := env.login(t, agentUser.Email, testPassword)
	page = body(t, env.get(t, path, agentCookie))
	assert.Contains(t, page, "Mine Lead")
	assert.NotContains(t, page, "Peers Lead")
}

func TestShowCategoryCrossOrganisationIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.seedOrganisation(t, "owner@acme.com", "Acme")
	_, otherOrg := env.seedOrganisation(t, "owner@globex.com", "Globex")
	foreign := env.seedCategory(t, otherOrg, "Globex Pipeline")

	cookie := env.login(t, owner.Email, testPassword)
	resp := env.get(t, "/categories/"+foreign.ID.String(), cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateCategory(t *testing.T) {
	env := newTestEnv(t)
	owner, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	cookie := env.login(t, owner.Email, testPassword)

	resp := env.postForm(t, "/categories/new", cookie, url.Values{"name": {"Contacted"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	categories, err := env.repo.ListCategories(org.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Contacted", categories[0].Name)
	assert.Equal(t, org.ID, categories[0].OrganisationID)

	resp = env.postForm(t, "/categories/new", cookie, url.Values{"name": {""}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	categories, err = env.repo.ListCategories(org.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestUpdateCategory(t *testing.T) {
	env := newTestEnv(t)
	owner, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	category := env.seedCategory(t, org, "New")
	cookie := env.login(t, owner.Email, testPassword)

	resp := env.postForm(t, fmt.Sprintf("/categories/%s/edit", category.ID), cookie, url.Values{
		"name": {"Qualified"},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	updated, err := env.repo.GetCategory(org.ID, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Qualified", updated.Name)
}

func TestDeleteCategoryUncategorizesLeads(t *testing.T) {
	env := newTestEnv(t)
	owner, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	category := env.seedCategory(t, org, "Doomed")

	lead := env.seedLead(t, org, nil, "Jane", "Doe")
	lead.CategoryID = &category.ID
	require.NoError(t, env.repo.UpdateLead(ownerScope(org.ID), lead))

	cookie := env.login(t, owner.Email, testPassword)
	resp := env.postForm(t, fmt.Sprintf("/categories/%s/delete", category.ID), cookie, url.Values{})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, err := env.repo.GetCategory(org.ID, category.ID)
	assert.Error(t, err)

	survivor, err := env.repo.GetLead(ownerScope(org.ID), lead.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.CategoryID, "leads fall back to uncategorized")
}

func TestAgentCannotManageCategories(t *testing.T) {
	env := newTestEnv(t)
	_, org := env.seedOrganisation(t, "owner@acme.com", "Acme")
	agentUser, _ := env.seedAgent(t, "agent@acme.com", org)
	cookie := env.login(t, agentUser.Email, testPassword)

	resp := env.postForm(t, "/categories/new", cookie, url.Values{"name": {"Rogue"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/leads", resp.Header.Get("Location"))

	categories, err := env.repo.ListCategories(org.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
