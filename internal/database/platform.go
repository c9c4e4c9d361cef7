package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// PlatformDB handles connections to the platform routing database
type PlatformDB struct {
	pool *pgxpool.Pool
}

// NewPlatformDB creates a new platform database connection
func NewPlatformDB(ctx context.Context, connString string) (*PlatformDB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse platform DB config: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform DB pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping platform DB: %w", err)
	}

	return &PlatformDB{pool: pool}, nil
}

// GetCompanyBySlug retrieves company information by slug
func (db *PlatformDB) GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error) {
	query := `
		SELECT id, slug, name, db_host, db_port, db_name, db_user, db_password_encrypted,
		       status, created_at, updated_at
		FROM companies
		WHERE slug = $1 AND deleted_at IS NULL AND status = 'active'
	`

	var company models.Company
	var dbUser, dbPassword *string

	err := db.pool.QueryRow(ctx, query, slug).Scan(
		&company.ID,
		&company.Slug,
		&company.Name,
		&company.DBHost,
		&company.DBPort,
		&company.DBName,
		&dbUser,
		&dbPassword,
		&company.Status,
		&company.CreatedAt,
		&company.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get company by slug %s: %w", slug, err)
	}

	// Handle nullable fields
	if dbUser != nil {
		company.DBUser = *dbUser
	}
	if dbPassword != nil {
		company.DBPasswordEncrypted = *dbPassword
	}

	return &company, nil
}

// ListActiveCompanies returns every active company for background loops that
// run per tenant.
func (db *PlatformDB) ListActiveCompanies(ctx context.Context) ([]models.Company, error) {
	query := `
		SELECT id, slug, name, db_host, db_port, db_name, db_user, db_password_encrypted,
		       status, created_at, updated_at
		FROM companies
		WHERE deleted_at IS NULL AND status = 'active'
		ORDER BY slug
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active companies: %w", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		var company models.Company
		var dbUser, dbPassword *string
		err := rows.Scan(
			&company.ID,
			&company.Slug,
			&company.Name,
			&company.DBHost,
			&company.DBPort,
			&company.DBName,
			&dbUser,
			&dbPassword,
			&company.Status,
			&company.CreatedAt,
			&company.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse company row: %w", err)
		}
		if dbUser != nil {
			company.DBUser = *dbUser
		}
		if dbPassword != nil {
			company.DBPasswordEncrypted = *dbPassword
		}
		companies = append(companies, company)
	}

	return companies, nil
}

// UpdateCompanyLastActivity updates the last_activity_at timestamp
func (db *PlatformDB) UpdateCompanyLastActivity(ctx context.Context, companyID string) error {
	query := `UPDATE companies SET last_activity_at = NOW() WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, companyID)
	return err
}

// Close closes the platform database connection pool
func (db *PlatformDB) Close() {
	db.pool.Close()
}

// Health checks if the platform database is healthy
func (db *PlatformDB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
