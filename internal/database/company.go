package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// CompanyDBManager manages connections to company-specific databases
type CompanyDBManager struct {
	platformDB *PlatformDB
	dbPassword string
	pools      sync.Map // map[companyID]string -> *pgxpool.Pool
	mu         sync.Mutex
}

// NewCompanyDBManager creates a new company database manager. dbPassword is
// the shared tenant-database credential from configuration.
func NewCompanyDBManager(platformDB *PlatformDB, dbPassword string) *CompanyDBManager {
	return &CompanyDBManager{
		platformDB: platformDB,
		dbPassword: dbPassword,
	}
}

// GetCompanyDB retrieves or creates a connection pool for a company database
func (m *CompanyDBManager) GetCompanyDB(ctx context.Context, company *models.Company) (*pgxpool.Pool, error) {
	// Check if pool already exists
	if pool, ok := m.pools.Load(company.ID.String()); ok {
		return pool.(*pgxpool.Pool), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring lock
	if pool, ok := m.pools.Load(company.ID.String()); ok {
		return pool.(*pgxpool.Pool), nil
	}

	user := company.DBUser
	if user == "" {
		user = "postgres"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		user,
		m.dbPassword,
		company.DBHost,
		company.DBPort,
		company.DBName,
	)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse company DB config for %s: %w", company.Slug, err)
	}

	// Connection pool settings for company databases
	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create company DB pool for %s: %w", company.Slug, err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping company DB for %s: %w", company.Slug, err)
	}

	// Store in cache
	m.pools.Store(company.ID.String(), pool)

	return pool, nil
}

// GetCompanyDBBySlug is a convenience method that looks up the company and gets its DB
func (m *CompanyDBManager) GetCompanyDBBySlug(ctx context.Context, slug string) (*pgxpool.Pool, *models.Company, error) {
	// Look up company from platform database
	company, err := m.platformDB.GetCompanyBySlug(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get company by slug: %w", err)
	}

	// Get or create connection pool
	pool, err := m.GetCompanyDB(ctx, company)
	if err != nil {
		return nil, nil, err
	}

	// Update last activity
	go func() {
		ctx := context.Background()
		_ = m.platformDB.UpdateCompanyLastActivity(ctx, company.ID.String())
	}()

	return pool, company, nil
}

// Close closes all company database connections
func (m *CompanyDBManager) Close() {
	m.pools.Range(func(key, value interface{}) bool {
		if pool, ok := value.(*pgxpool.Pool); ok {
			pool.Close()
		}
		m.pools.Delete(key)
		return true
	})
}

// PoolStats returns statistics about connection pools
func (m *CompanyDBManager) PoolStats() map[string]interface{} {
	stats := make(map[string]interface{})
	count := 0

	m.pools.Range(func(key, value interface{}) bool {
		count++
		if pool, ok := value.(*pgxpool.Pool); ok {
			poolStats := pool.Stat()
			stats[key.(string)] = map[string]interface{}{
				"acquired_conns": poolStats.AcquiredConns(),
				"idle_conns":     poolStats.IdleConns(),
				"total_conns":    poolStats.TotalConns(),
				"max_conns":      poolStats.MaxConns(),
			}
		}
		return true
	})

	stats["total_pools"] = count
	return stats
}
