package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"clipforge/internal/domain"
)

// SharedLinkRepository — контракт хранилища публичных ссылок.
type SharedLinkRepository interface {
	Create(ctx context.Context, link *domain.SharedLink) error
	GetByToken(ctx context.Context, token string) (*domain.SharedLink, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// Повторные попытки при коллизии токена. Уникальность обеспечивает
// индекс в базе, генератор лишь перегенерирует значение.
const tokenRetries = 3

// ShareService выдаёт временные публичные ссылки и проверяет доступ
// по ним. Порядок проверок фиксирован: токен, срок, видео, путь.
type ShareService struct {
	linkRepo  SharedLinkRepository
	videoRepo VideoRepository
	store     ArtifactStore
	now       func() time.Time
}

func NewShareService(linkRepo SharedLinkRepository, videoRepo VideoRepository, store ArtifactStore) *ShareService {
	return &ShareService{
		linkRepo:  linkRepo,
		videoRepo: videoRepo,
		store:     store,
		now:       time.Now,
	}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateShareLink создаёт ссылку на видео со сроком действия в минутах.
func (s *ShareService) CreateShareLink(ctx context.Context, videoID int64, expiryMinutes float64) (*domain.SharedLink, error) {
	if expiryMinutes <= 0 {
		return nil, fmt.Errorf("%w: %v minutes", domain.ErrInvalidExpiry, expiryMinutes)
	}

	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(time.Duration(expiryMinutes * float64(time.Minute)))

	var link *domain.SharedLink
	for attempt := 0; attempt < tokenRetries; attempt++ {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		link = &domain.SharedLink{
			VideoID:    videoID,
			ShareToken: token,
			ExpiresAt:  expiresAt,
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			log.Printf("[ShareService] Created share link %d for video %d, expires %s",
				link.ID, videoID, expiresAt.Format(time.RFC3339))
			return link, nil
		}
		if !errors.Is(err, domain.ErrTokenCollision) {
			return nil, &domain.PersistenceError{Op: "create share link", Err: err}
		}
		log.Printf("[ShareService] Token collision on attempt %d, regenerating", attempt+1)
	}

	return nil, &domain.PersistenceError{Op: "create share link", Err: domain.ErrTokenCollision}
}

// AccessShared проверяет токен и возвращает видео для отдачи клиенту.
// Проверки строго упорядочены: отсутствие токена, истечение срока,
// отсутствие видео, отсутствие пути к файлу.
func (s *ShareService) AccessShared(ctx context.Context, token string) (*domain.Video, error) {
	link, err := s.linkRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if link.Expired(s.now()) {
		return nil, domain.ErrLinkExpired
	}

	video, err := s.videoRepo.GetByID(ctx, link.VideoID)
	if err != nil {
		return nil, err
	}

	if video.FilePath == "" || !s.store.Exists(video.FilePath) {
		return nil, fmt.Errorf("%w: video %d", domain.ErrMissingFilePath, video.ID)
	}

	return video, nil
}

// CleanupExpired удаляет истёкшие ссылки; вызывается по расписанию.
func (s *ShareService) CleanupExpired(ctx context.Context) error {
	removed, err := s.linkRepo.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("[ShareService] Removed %d expired share links", removed)
	}
	return nil
}

// RunCleanupLoop периодически удаляет истёкшие ссылки до отмены ctx.
func (s *ShareService) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CleanupExpired(ctx); err != nil {
				log.Printf("[ShareService] Error during expired links cleanup: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
