package preview

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/h2non/bimg"

	"clipforge/internal/config"
	"clipforge/internal/domain"
)

const (
	maxImageSize = 1024 // максимальный размер превью в пикселях
	jpegQuality  = 85   // качество JPEG
)

// VideoRepository — доступ к записям видео, нужный сервису превью.
type VideoRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
}

// Service генерирует и кеширует JPEG-превью для видео.
// Кеш живёт на диске, ключ — идентификатор видео.
type Service struct {
	videoRepo    VideoRepository
	mediaCfg     config.MediaConfig
	thumbnailDir string
}

func NewService(videoRepo VideoRepository, mediaCfg config.MediaConfig, thumbnailDir string) (*Service, error) {
	if err := os.MkdirAll(thumbnailDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	return &Service{
		videoRepo:    videoRepo,
		mediaCfg:     mediaCfg,
		thumbnailDir: thumbnailDir,
	}, nil
}

// GetOrGenerateThumbnail возвращает превью видео, генерируя его при
// отсутствии в кеше.
func (s *Service) GetOrGenerateThumbnail(ctx context.Context, videoID int64) ([]byte, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	cachePath := filepath.Join(s.thumbnailDir, fmt.Sprintf("%d.jpg", videoID))
	if data, err := os.ReadFile(cachePath); err == nil {
		log.Printf("[Thumbnail] Cache hit for video %d", videoID)
		return data, nil
	}

	log.Printf("[Thumbnail] Generating thumbnail for video %d", videoID)

	frameData, err := s.extractFrame(ctx, video)
	if err != nil {
		return nil, err
	}

	thumbnail, err := optimizeImage(frameData)
	if err != nil {
		return nil, err
	}

	// Сбой записи в кеш не мешает отдать готовое превью
	if err := os.WriteFile(cachePath, thumbnail, 0644); err != nil {
		log.Printf("[Thumbnail] Failed to cache thumbnail for video %d: %v", videoID, err)
	}

	return thumbnail, nil
}

// extractFrame извлекает один кадр видео в JPEG через ffmpeg.
func (s *Service) extractFrame(ctx context.Context, video *domain.Video) ([]byte, error) {
	outputPath := filepath.Join(s.thumbnailDir, fmt.Sprintf("frame-%d.tmp.jpg", video.ID))
	defer os.Remove(outputPath)

	cmd := exec.CommandContext(ctx, s.mediaCfg.FFmpegPath,
		"-ss", thumbnailTime(video.Duration),
		"-i", video.FilePath,
		"-vf", fmt.Sprintf("scale=%d:-1:force_original_aspect_ratio=decrease", maxImageSize),
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "image2",
		"-y",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to extract frame: %w (stderr: %s)", err, stderr.String())
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame image: %w", err)
	}

	return data, nil
}

// optimizeImage приводит кадр к размеру превью с сохранением пропорций.
func optimizeImage(data []byte) ([]byte, error) {
	image := bimg.NewImage(data)

	size, err := image.Size()
	if err != nil {
		return nil, fmt.Errorf("failed to get image size: %w", err)
	}

	width, height := calculateNewDimensions(size.Width, size.Height, maxImageSize)

	processed, err := image.Process(bimg.Options{
		Width:   width,
		Height:  height,
		Quality: jpegQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	return processed, nil
}

func calculateNewDimensions(width, height, maxSize int) (newWidth, newHeight int) {
	if width > height {
		newWidth = maxSize
		newHeight = (height * maxSize) / width
	} else {
		newHeight = maxSize
		newWidth = (width * maxSize) / height
	}
	return
}

// thumbnailTime выбирает момент кадра: 10% от начала, минимум 1 секунда.
func thumbnailTime(duration float64) string {
	if duration <= 10 {
		return "00:00:01"
	}

	previewSeconds := duration * 0.1
	hours := int(previewSeconds) / 3600
	minutes := (int(previewSeconds) % 3600) / 60
	seconds := int(previewSeconds) % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
