package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"leadcrm/internal/database"
	"leadcrm/internal/model"
	"leadcrm/internal/scope"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type DatabaseRepository struct {
	db database.Database
}

func NewDatabaseRepository(db database.Database) *DatabaseRepository {
	return &DatabaseRepository{db: db}
}

func (r *DatabaseRepository) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tbl_user (
			id UUID PRIMARY KEY,
			email VARCHAR(100) NOT NULL UNIQUE,
			first_name VARCHAR(20) NOT NULL,
			last_name VARCHAR(20) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL CHECK (role IN ('organisor', 'agent')),
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tbl_organisation (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES tbl_user(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tbl_agent (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES tbl_user(id) ON DELETE CASCADE,
			organisation_id UUID NOT NULL REFERENCES tbl_organisation(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tbl_category (
			id UUID PRIMARY KEY,
			organisation_id UUID NOT NULL REFERENCES tbl_organisation(id) ON DELETE CASCADE,
			name VARCHAR(30) NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tbl_lead (
			id UUID PRIMARY KEY,
			organisation_id UUID NOT NULL REFERENCES tbl_organisation(id) ON DELETE CASCADE,
			agent_id UUID REFERENCES tbl_agent(id) ON DELETE SET NULL,
			category_id UUID REFERENCES tbl_category(id) ON DELETE SET NULL,
			first_name VARCHAR(20) NOT NULL,
			last_name VARCHAR(20) NOT NULL,
			age INTEGER NOT NULL CHECK (age >= 0),
			description TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lead_organisation ON tbl_lead (organisation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_lead_agent ON tbl_lead (agent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_lead_category ON tbl_lead (category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_organisation ON tbl_agent (organisation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_category_organisation ON tbl_category (organisation_id);`,
		// Session storage for gofiber/storage/postgres.
		`CREATE TABLE IF NOT EXISTS sessions (
			k VARCHAR(255) PRIMARY KEY,
			v BYTEA,
			e BIGINT
		);`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	slog.Info("Database migration completed")
	return nil
}

func (r *DatabaseRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateOrganisorAccount inserts the user and its organisation in one
// transaction so no organisor ever exists without an organisation.
func (r *DatabaseRepository) CreateOrganisorAccount(user model.User, org model.Organisation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO tbl_user (id, email, first_name, last_name, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.Role, user.CreatedAt,
	); err != nil {
		return translateUniqueViolation(err)
	}

	if _, err := tx.Exec(
		"INSERT INTO tbl_organisation (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)",
		org.ID, org.UserID, org.Name, org.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create organisation: %w", err)
	}

	return tx.Commit()
}

// CreateAgentAccount inserts the agent's user account and agent row in
// one transaction.
func (r *DatabaseRepository) CreateAgentAccount(user model.User, agent model.Agent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO tbl_user (id, email, first_name, last_name, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.Role, user.CreatedAt,
	); err != nil {
		return translateUniqueViolation(err)
	}

	if _, err := tx.Exec(
		"INSERT INTO tbl_agent (id, user_id, organisation_id, created_at) VALUES ($1, $2, $3, $4)",
		agent.ID, agent.UserID, agent.OrganisationID, agent.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return tx.Commit()
}

func (r *DatabaseRepository) GetUserByID(id uuid.UUID) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(
		"SELECT id, email, first_name, last_name, password_hash, role, created_at FROM tbl_user WHERE id = $1", id,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *DatabaseRepository) GetUserByEmail(email string) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(
		"SELECT id, email, first_name, last_name, password_hash, role, created_at FROM tbl_user WHERE email = $1", email,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *DatabaseRepository) GetOrganisationByID(id uuid.UUID) (model.Organisation, error) {
	var org model.Organisation
	err := r.db.QueryRow(
		"SELECT id, user_id, name, created_at FROM tbl_organisation WHERE id = $1", id,
	).Scan(&org.ID, &org.UserID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Organisation{}, ErrOrganisationNotFound
		}
		return model.Organisation{}, err
	}
	return org, nil
}

func (r *DatabaseRepository) GetOrganisationByUserID(userID uuid.UUID) (model.Organisation, error) {
	var org model.Organisation
	err := r.db.QueryRow(
		"SELECT id, user_id, name, created_at FROM tbl_organisation WHERE user_id = $1", userID,
	).Scan(&org.ID, &org.UserID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Organisation{}, ErrOrganisationNotFound
		}
		return model.Organisation{}, err
	}
	return org, nil
}

// DeleteOrganisation removes the organisation together with all its
// agents' user accounts. Category, lead and agent rows go with it via
// ON DELETE CASCADE; the whole removal is one transaction.
func (r *DatabaseRepository) DeleteOrganisation(id uuid.UUID) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM tbl_user WHERE id IN (SELECT user_id FROM tbl_agent WHERE organisation_id = $1)", id,
	); err != nil {
		return fmt.Errorf("failed to delete agent accounts: %w", err)
	}

	res, err := tx.Exec("DELETE FROM tbl_user WHERE id = (SELECT user_id FROM tbl_organisation WHERE id = $1)", id)
	if err != nil {
		return fmt.Errorf("failed to delete organisation: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrganisationNotFound
	}

	return tx.Commit()
}

const agentColumns = `a.id, a.user_id, a.organisation_id, a.created_at,
	u.id, u.email, u.first_name, u.last_name, u.role, u.created_at`

func scanAgent(row interface{ Scan(...any) error }) (model.Agent, error) {
	var agent model.Agent
	err := row.Scan(
		&agent.ID, &agent.UserID, &agent.OrganisationID, &agent.CreatedAt,
		&agent.User.ID, &agent.User.Email, &agent.User.FirstName, &agent.User.LastName, &agent.User.Role, &agent.User.CreatedAt,
	)
	return agent, err
}

func (r *DatabaseRepository) ListAgents(organisationID uuid.UUID) ([]model.Agent, error) {
	rows, err := r.db.Query(
		"SELECT "+agentColumns+" FROM tbl_agent a JOIN tbl_user u ON u.id = a.user_id WHERE a.organisation_id = $1 ORDER BY a.created_at",
		organisationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *DatabaseRepository) GetAgent(organisationID, id uuid.UUID) (model.Agent, error) {
	agent, err := scanAgent(r.db.QueryRow(
		"SELECT "+agentColumns+" FROM tbl_agent a JOIN tbl_user u ON u.id = a.user_id WHERE a.id = $1 AND a.organisation_id = $2",
		id, organisationID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Agent{}, ErrAgentNotFound
		}
		return model.Agent{}, err
	}
	return agent, nil
}

func (r *DatabaseRepository) GetAgentByUserID(userID uuid.UUID) (model.Agent, error) {
	agent, err := scanAgent(r.db.QueryRow(
		"SELECT "+agentColumns+" FROM tbl_agent a JOIN tbl_user u ON u.id = a.user_id WHERE a.user_id = $1",
		userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Agent{}, ErrAgentNotFound
		}
		return model.Agent{}, err
	}
	return agent, nil
}

// UpdateAgent rewrites the agent's account fields. The organisation
// bound makes an out-of-scope agent indistinguishable from a missing
// one.
func (r *DatabaseRepository) UpdateAgent(organisationID uuid.UUID, agent model.Agent) error {
	res, err := r.db.Exec(
		`UPDATE tbl_user SET email = $1, first_name = $2, last_name = $3
		 FROM tbl_agent
		 WHERE tbl_agent.user_id = tbl_user.id AND tbl_agent.id = $4 AND tbl_agent.organisation_id = $5`,
		agent.User.Email, agent.User.FirstName, agent.User.LastName, agent.ID, organisationID,
	)
	if err != nil {
		return translateUniqueViolation(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// DeleteAgent removes the agent's user account; the agent row cascades
// from it and referencing leads fall back to unassigned via
// ON DELETE SET NULL.
func (r *DatabaseRepository) DeleteAgent(organisationID, id uuid.UUID) error {
	res, err := r.db.Exec(
		"DELETE FROM tbl_user WHERE id = (SELECT user_id FROM tbl_agent WHERE id = $1 AND organisation_id = $2)",
		id, organisationID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrAgentNotFound
	}
	return nil
}

const leadColumns = "id, organisation_id, agent_id, category_id, first_name, last_name, age, description, created_at"

func scanLead(row interface{ Scan(...any) error }) (model.Lead, error) {
	var lead model.Lead
	err := row.Scan(
		&lead.ID, &lead.OrganisationID, &lead.AgentID, &lead.CategoryID,
		&lead.FirstName, &lead.LastName, &lead.Age, &lead.Description, &lead.CreatedAt,
	)
	return lead, err
}

func (r *DatabaseRepository) queryLeads(query string, args ...any) ([]model.Lead, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *DatabaseRepository) CreateLead(lead model.Lead) error {
	_, err := r.db.Exec(
		"INSERT INTO tbl_lead ("+leadColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		lead.ID, lead.OrganisationID, lead.AgentID, lead.CategoryID,
		lead.FirstName, lead.LastName, lead.Age, lead.Description, lead.CreatedAt,
	)
	return err
}

// ListAssignedLeads is the primary lead list: all assigned leads of
// the organisation, narrowed to one agent when the scope carries an
// agent id.
func (r *DatabaseRepository) ListAssignedLeads(s scope.Scope) ([]model.Lead, error) {
	query := "SELECT " + leadColumns + " FROM tbl_lead WHERE organisation_id = $1 AND agent_id IS NOT NULL"
	args := []any{s.OrganisationID}
	if s.AgentID != nil {
		query += " AND agent_id = $2"
		args = append(args, *s.AgentID)
	}
	return r.queryLeads(query+" ORDER BY created_at DESC", args...)
}

// ListUnassignedLeads is the organisor-only supplemental collection.
func (r *DatabaseRepository) ListUnassignedLeads(organisationID uuid.UUID) ([]model.Lead, error) {
	return r.queryLeads(
		"SELECT "+leadColumns+" FROM tbl_lead WHERE organisation_id = $1 AND agent_id IS NULL ORDER BY created_at DESC",
		organisationID,
	)
}

func (r *DatabaseRepository) ListLeadsByCategory(s scope.Scope, categoryID uuid.UUID) ([]model.Lead, error) {
	query := "SELECT " + leadColumns + " FROM tbl_lead WHERE organisation_id = $1 AND category_id = $2"
	args := []any{s.OrganisationID, categoryID}
	if s.AgentID != nil {
		query += " AND agent_id = $3"
		args = append(args, *s.AgentID)
	}
	return r.queryLeads(query+" ORDER BY created_at DESC", args...)
}

func (r *DatabaseRepository) GetLead(s scope.Scope, id uuid.UUID) (model.Lead, error) {
	query := "SELECT " + leadColumns + " FROM tbl_lead WHERE id = $1 AND organisation_id = $2"
	args := []any{id, s.OrganisationID}
	if s.AgentID != nil {
		query += " AND agent_id = $3"
		args = append(args, *s.AgentID)
	}

	lead, err := scanLead(r.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Lead{}, ErrLeadNotFound
		}
		return model.Lead{}, err
	}
	return lead, nil
}

func (r *DatabaseRepository) UpdateLead(s scope.Scope, lead model.Lead) error {
	query := `UPDATE tbl_lead SET first_name = $1, last_name = $2, age = $3, description = $4, category_id = $5
		WHERE id = $6 AND organisation_id = $7`
	args := []any{lead.FirstName, lead.LastName, lead.Age, lead.Description, lead.CategoryID, lead.ID, s.OrganisationID}
	if s.AgentID != nil {
		query += " AND agent_id = $8"
		args = append(args, *s.AgentID)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *DatabaseRepository) DeleteLead(s scope.Scope, id uuid.UUID) error {
	query := "DELETE FROM tbl_lead WHERE id = $1 AND organisation_id = $2"
	args := []any{id, s.OrganisationID}
	if s.AgentID != nil {
		query += " AND agent_id = $3"
		args = append(args, *s.AgentID)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// AssignLead sets the lead's agent. The caller resolves the agent
// within the requester's organisation first; the organisation bound
// here keeps a cross-organisation assignment impossible even so.
func (r *DatabaseRepository) AssignLead(organisationID, leadID, agentID uuid.UUID) error {
	res, err := r.db.Exec(
		`UPDATE tbl_lead SET agent_id = $1
		 WHERE id = $2 AND organisation_id = $3
		 AND EXISTS (SELECT 1 FROM tbl_agent WHERE id = $1 AND organisation_id = $3)`,
		agentID, leadID, organisationID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *DatabaseRepository) CreateCategory(category model.Category) error {
	_, err := r.db.Exec(
		"INSERT INTO tbl_category (id, organisation_id, name, created_at) VALUES ($1, $2, $3, $4)",
		category.ID, category.OrganisationID, category.Name, category.CreatedAt,
	)
	return err
}

func (r *DatabaseRepository) ListCategories(organisationID uuid.UUID) ([]model.Category, error) {
	rows, err := r.db.Query(
		"SELECT id, organisation_id, name, created_at FROM tbl_category WHERE organisation_id = $1 ORDER BY created_at",
		organisationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.ID, &category.OrganisationID, &category.Name, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *DatabaseRepository) GetCategory(organisationID, id uuid.UUID) (model.Category, error) {
	var category model.Category
	err := r.db.QueryRow(
		"SELECT id, organisation_id, name, created_at FROM tbl_category WHERE id = $1 AND organisation_id = $2",
		id, organisationID,
	).Scan(&category.ID, &category.OrganisationID, &category.Name, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, ErrCategoryNotFound
		}
		return model.Category{}, err
	}
	return category, nil
}

func (r *DatabaseRepository) UpdateCategory(organisationID uuid.UUID, category model.Category) error {
	res, err := r.db.Exec(
		"UPDATE tbl_category SET name = $1 WHERE id = $2 AND organisation_id = $3",
		category.Name, category.ID, organisationID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *DatabaseRepository) DeleteCategory(organisationID, id uuid.UUID) error {
	res, err := r.db.Exec(
		"DELETE FROM tbl_category WHERE id = $1 AND organisation_id = $2",
		id, organisationID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *DatabaseRepository) GetLeadStats(organisationID uuid.UUID) (model.LeadStats, error) {
	var stats model.LeadStats
	err := r.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM tbl_lead WHERE organisation_id = $1),
			(SELECT COUNT(*) FROM tbl_lead WHERE organisation_id = $1 AND agent_id IS NULL),
			(SELECT COUNT(*) FROM tbl_agent WHERE organisation_id = $1),
			(SELECT COUNT(*) FROM tbl_category WHERE organisation_id = $1)`,
		organisationID,
	).Scan(&stats.TotalLeads, &stats.UnassignedLeads, &stats.Agents, &stats.Categories)
	if err != nil {
		return model.LeadStats{}, err
	}
	return stats, nil
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
