package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"leadcrm/internal/form"
	"leadcrm/internal/model"
	"leadcrm/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

// ownerScope is the organisation-wide scope an organisor operates with.
func ownerScope(orgID uuid.UUID) scope.Scope {
	return scope.Scope{OrganisationID: orgID}
}

// bcrypt.MinCost keeps the suite fast.
func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

type fakeNotifier struct {
	leadCreated  chan model.Lead
	agentInvited chan string // temporary password
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		leadCreated:  make(chan model.Lead, 8),
		agentInvited: make(chan string, 8),
	}
}

func (n *fakeNotifier) LeadCreated(lead model.Lead) error {
	n.leadCreated <- lead
	return nil
}

func (n *fakeNotifier) AgentInvited(_ model.Agent, _, tempPassword string) error {
	n.agentInvited <- tempPassword
	return nil
}

type testEnv struct {
	app      *fiber.App
	repo     *fakeRepo
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepo()
	notifier := newFakeNotifier()

	engine := html.New("../../views", ".html")
	app := fiber.New(fiber.Config{
		Views:             engine,
		PassLocalsToViews: true,
	})

	store := session.New()
	h := NewHandler(store, repo, scope.NewResolver(repo), form.New(), notifier)
	h.RegisterRoutes(app)

	return &testEnv{app: app, repo: repo, notifier: notifier}
}

// seedOrganisation creates an organisor account and its organisation.
func (e *testEnv) seedOrganisation(t *testing.T, email, orgName string) (model.User, model.Organisation) {
	t.Helper()

	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Org",
		LastName:     "Owner",
		PasswordHash: hashPassword(t, testPassword),
		Role:         model.RoleOrganisor,
		CreatedAt:    time.Now(),
	}
	org := model.Organisation{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      orgName,
		CreatedAt: user.CreatedAt,
	}
	require.NoError(t, e.repo.CreateOrganisorAccount(user, org))
	return user, org
}

func (e *testEnv) seedAgent(t *testing.T, email string, org model.Organisation) (model.User, model.Agent) {
	t.Helper()

	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Sales",
		LastName:     "Agent",
		PasswordHash: hashPassword(t, testPassword),
		Role:         model.RoleAgent,
		CreatedAt:    time.Now(),
	}
	agent := model.Agent{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrganisationID: org.ID,
		CreatedAt:      user.CreatedAt,
	}
	require.NoError(t, e.repo.CreateAgentAccount(user, agent))
	return user, agent
}

func (e *testEnv) seedLead(t *testing.T, org model.Organisation, agentID *uuid.UUID, firstName, lastName string) model.Lead {
	t.Helper()

	lead := model.Lead{
		ID:             uuid.New(),
		OrganisationID: org.ID,
		AgentID:        agentID,
		FirstName:      firstName,
		LastName:       lastName,
		Age:            30,
		Description:    "seeded",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, e.repo.CreateLead(lead))
	return lead
}

func (e *testEnv) seedCategory(t *testing.T, org model.Organisation, name string) model.Category {
	t.Helper()

	category := model.Category{
		ID:             uuid.New(),
		OrganisationID: org.ID,
		Name:           name,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, e.repo.CreateCategory(category))
	return category
}

// login performs a form login and returns the session cookie to attach
// to subsequent requests.
func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	resp := e.postForm(t, "/login", nil, url.Values{
		"email":    {email},
		"password": {password},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode, "login should redirect")

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" {
			return cookie
		}
	}
	t.Fatal("no session cookie issued on login")
	return nil
}

func (e *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, cookie *http.Cookie, values url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
