package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"clipforge/internal/domain"
)

// Код ошибки Postgres для нарушения уникального ограничения.
const uniqueViolation = "23505"

type SharedLinkRepository struct {
	db *sqlx.DB
}

func NewSharedLinkRepository(db *sqlx.DB) *SharedLinkRepository {
	return &SharedLinkRepository{db: db}
}

func (r *SharedLinkRepository) Create(ctx context.Context, link *domain.SharedLink) error {
	query := `
        INSERT INTO shared_links (video_id, share_token, expires_at, created_at)
        VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		link.VideoID,
		link.ShareToken,
		link.ExpiresAt,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrTokenCollision
		}
		return fmt.Errorf("failed to create shared link: %w", err)
	}

	return nil
}

// GetByToken возвращает ссылку независимо от срока действия:
// истечение проверяет сервис, чтобы отличать 404 от 410.
func (r *SharedLinkRepository) GetByToken(ctx context.Context, token string) (*domain.SharedLink, error) {
	query := `SELECT * FROM shared_links WHERE share_token = $1`

	var link domain.SharedLink
	if err := r.db.GetContext(ctx, &link, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get shared link: %w", err)
	}

	return &link, nil
}

// DeleteExpired удаляет давно истёкшие ссылки, возвращая их количество.
func (r *SharedLinkRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM shared_links WHERE expires_at < CURRENT_TIMESTAMP`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", err)
	}

	return result.RowsAffected()
}
