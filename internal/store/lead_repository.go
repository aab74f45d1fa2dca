package store

import (
	"context"
	"fmt"
	"time"

	"promo-pulse/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// LeadRepository определяет интерфейс для работы с лидами
type LeadRepository interface {
	Upsert(ctx context.Context, lead *models.Lead) error
	GetByEmail(ctx context.Context, email string) (*models.Lead, error)
}

// PostgresLeadRepository реализует LeadRepository для PostgreSQL
type PostgresLeadRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLeadRepository создает новый репозиторий лидов
func NewLeadRepository(db *pgxpool.Pool, logger *zap.Logger) LeadRepository {
	return &PostgresLeadRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert вставляет лида либо обновляет контактные поля существующего по email
func (r *PostgresLeadRepository) Upsert(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, email, name, company, message, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    company = EXCLUDED.company,
		    message = EXCLUDED.message,
		    source = EXCLUDED.source,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		lead.ID,
		lead.Email,
		lead.Name,
		lead.Company,
		lead.Message,
		lead.Source,
		now,
	).Scan(&lead.ID, &lead.CreatedAt)

	if err != nil {
		return fmt.Errorf("ошибка сохранения лида: %w", err)
	}

	lead.UpdatedAt = now

	r.logger.Info("лид сохранен",
		zap.String("lead_id", lead.ID.String()),
		zap.String("email", lead.Email),
		zap.String("source", lead.Source))

	return nil
}

// GetByEmail получает лида по email
func (r *PostgresLeadRepository) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	query := `
		SELECT id, email, name, company, message, source, created_at, updated_at
		FROM leads
		WHERE email = $1`

	lead := &models.Lead{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&lead.ID,
		&lead.Email,
		&lead.Name,
		&lead.Company,
		&lead.Message,
		&lead.Source,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения лида: %w", err)
	}

	return lead, nil
}
