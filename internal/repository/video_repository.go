package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"clipforge/internal/domain"
)

type VideoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
        INSERT INTO videos (file_name, file_path, size, duration, created_at)
        VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	return r.db.QueryRowContext(
		ctx,
		query,
		video.FileName,
		video.FilePath,
		video.Size,
		video.Duration,
	).Scan(&video.ID, &video.CreatedAt)
}

func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	query := `SELECT * FROM videos WHERE id = $1`

	var video domain.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video %d: %w", id, err)
	}

	return &video, nil
}

// GetByIDs возвращает все видео из набора ids. Проверка полноты набора —
// забота вызывающего: репозиторий отдаёт то, что нашлось.
func (r *VideoRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM videos WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build bulk query: %w", err)
	}
	query = r.db.Rebind(query)

	var videos []domain.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get videos: %w", err)
	}

	return videos, nil
}
