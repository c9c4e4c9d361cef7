package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

var ErrCompanyNotFound = errors.New("company not found")
var ErrSlugTaken = errors.New("slug already taken")

type CompanyRepository struct {
	db *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetCompanyBySlug retrieves a company routing record by its slug
func (r *CompanyRepository) GetCompanyBySlug(ctx context.Context, slug string) (*models.CompanyInfo, error) {
	query := `
		SELECT id, slug, name, status = 'active'
		FROM companies
		WHERE slug = $1 AND deleted_at IS NULL
	`

	var company models.CompanyInfo
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&company.ID,
		&company.Slug,
		&company.Name,
		&company.Active,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return &company, nil
}

// GetCompanyByID retrieves full company details by ID
func (r *CompanyRepository) GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at, deleted_at
		FROM companies
		WHERE id = $1
	`

	var company models.Company
	err := r.db.QueryRow(ctx, query, id).Scan(
		&company.ID,
		&company.Slug,
		&company.Name,
		&company.Status,
		&company.CreatedAt,
		&company.UpdatedAt,
		&company.DeletedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return &company, nil
}

// CreateCompany creates a new company with the given slug
func (r *CompanyRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	// Check if slug is already taken
	exists, err := r.SlugExists(ctx, company.Slug)
	if err != nil {
		return err
	}
	if exists {
		return ErrSlugTaken
	}

	query := `
		INSERT INTO companies (id, slug, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}

	err = r.db.QueryRow(ctx, query,
		company.ID,
		company.Slug,
		company.Name,
		company.Status,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)

	return err
}

// SlugExists checks if a slug is already in use
func (r *CompanyRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM companies WHERE slug = $1 AND deleted_at IS NULL)`
	var exists bool
	err := r.db.QueryRow(ctx, query, slug).Scan(&exists)
	return exists, err
}

// UpdateCompany updates company details
func (r *CompanyRepository) UpdateCompany(ctx context.Context, company *models.Company) error {
	query := `
		UPDATE companies
		SET name = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, company.Name, company.Status, company.ID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}

	return nil
}
