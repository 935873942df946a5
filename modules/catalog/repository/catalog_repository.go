package repository

import (
	"context"
	"database/sql"

	"fqt-booking-api/core/database"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/catalog/entity"

	"github.com/google/uuid"
)

// CatalogRepository reads companies, service types and host pools. These
// tables are written by the admin surface, which lives outside this service.
type CatalogRepository struct {
	DB database.IDatabase
}

func NewCatalogRepository(db database.IDatabase) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

type CatalogRepositoryInterface interface {
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	GetServiceTypeByID(ctx context.Context, id uuid.UUID) (*entity.ServiceType, error)
	ListActiveHosts(ctx context.Context, serviceTypeID uuid.UUID) ([]entity.ServiceHost, error)
}

func (r *CatalogRepository) GetCompanyByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	query := `
		SELECT id, name, address, contact_email, active, created_at, updated_at
		FROM companies WHERE id = $1
	`

	var company entity.Company
	err := r.DB.GetContext(ctx, &company, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CatalogRepository:GetCompanyByID", "error", err)
		return nil, err
	}

	return &company, nil
}

func (r *CatalogRepository) GetServiceTypeByID(ctx context.Context, id uuid.UUID) (*entity.ServiceType, error) {
	query := `
		SELECT id, name, kind, duration_minutes, active, created_at, updated_at
		FROM service_types WHERE id = $1
	`

	var serviceType entity.ServiceType
	err := r.DB.GetContext(ctx, &serviceType, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CatalogRepository:GetServiceTypeByID", "error", err)
		return nil, err
	}

	return &serviceType, nil
}

func (r *CatalogRepository) ListActiveHosts(ctx context.Context, serviceTypeID uuid.UUID) ([]entity.ServiceHost, error) {
	query := `
		SELECT id, service_type_id, host_email, display_name, active, created_at
		FROM service_hosts
		WHERE service_type_id = $1 AND active = true
		ORDER BY host_email
	`

	var hosts []entity.ServiceHost
	err := r.DB.SelectContext(ctx, &hosts, query, serviceTypeID)
	if err != nil {
		logger.Error("CatalogRepository:ListActiveHosts", "error", err)
		return nil, err
	}

	return hosts, nil
}
