package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"clipforge/internal/config"
	"clipforge/internal/domain"
	"clipforge/internal/media"
)

// VideoRepository — минимальный контракт хранилища метаданных видео.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Video, error)
}

// Prober читает метаданные файла через внешний движок.
type Prober interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
}

// Transformer выполняет обработку видео внешним движком.
type Transformer interface {
	Trim(ctx context.Context, inputPath string, start, duration float64, outputPath string) error
	ConcatNormalized(ctx context.Context, inputPaths []string, width, height int, outputPath string) error
}

// ArtifactStore управляет жизненным циклом файлов на диске.
type ArtifactStore interface {
	Finalize(stagedPath, ext string) (string, error)
	OutputPath(prefix string) string
	Exists(path string) bool
	Delete(path string) error
}

// Archiver зеркалирует готовые файлы во внешнее хранилище.
type Archiver interface {
	ArchiveVideo(ctx context.Context, video *domain.Video) error
}

// VideoService координирует конвейеры загрузки, обрезки и склейки:
// валидация до побочных эффектов, одна точка ожидания движка на задачу,
// компенсирующая очистка частичных артефактов на любом пути отказа.
type VideoService struct {
	videoRepo   VideoRepository
	prober      Prober
	transformer Transformer
	store       ArtifactStore
	archive     Archiver
	videoCfg    config.VideoConfig
	mediaCfg    config.MediaConfig
}

func NewVideoService(
	videoRepo VideoRepository,
	prober Prober,
	transformer Transformer,
	store ArtifactStore,
	archive Archiver,
	videoCfg config.VideoConfig,
	mediaCfg config.MediaConfig,
) *VideoService {
	return &VideoService{
		videoRepo:   videoRepo,
		prober:      prober,
		transformer: transformer,
		store:       store,
		archive:     archive,
		videoCfg:    videoCfg,
		mediaCfg:    mediaCfg,
	}
}

// IngestVideo принимает загруженный во временный файл ролик: проверяет
// длительность, приводит файл к канонической форме и сохраняет запись.
// Запись создаётся только после успешной финализации файла; при сбое
// записи финализированный файл удаляется, чтобы не копить сироты.
func (s *VideoService) IngestVideo(ctx context.Context, stagedPath string, size int64) (*domain.Video, error) {
	probe, err := s.prober.Probe(ctx, stagedPath)
	if err != nil {
		s.cleanup(stagedPath)
		return nil, err
	}

	if probe.Duration < s.videoCfg.MinDuration || probe.Duration > s.videoCfg.MaxDuration {
		s.cleanup(stagedPath)
		return nil, fmt.Errorf("%w: %.2fs not in [%.0f, %.0f]",
			domain.ErrDurationOutOfBounds, probe.Duration, s.videoCfg.MinDuration, s.videoCfg.MaxDuration)
	}

	finalPath, err := s.store.Finalize(stagedPath, ".mp4")
	if err != nil {
		s.cleanup(stagedPath)
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	video := &domain.Video{
		FileName: filepath.Base(finalPath),
		FilePath: finalPath,
		Size:     size,
		Duration: probe.Duration,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		s.cleanup(finalPath)
		return nil, &domain.PersistenceError{Op: "ingest", Err: err}
	}

	s.archiveAsync(video)

	log.Printf("[VideoService] Ingested video %d: %s (%.2fs, %d bytes)",
		video.ID, video.FileName, video.Duration, video.Size)
	return video, nil
}

// TrimVideo вырезает отрезок [startTime, endTime) из существующего видео
// и сохраняет результат как новое видео.
func (s *VideoService) TrimVideo(ctx context.Context, videoID int64, startTime, endTime float64) (*domain.Video, error) {
	if startTime < 0 || endTime <= startTime {
		return nil, fmt.Errorf("%w: start=%.3f end=%.3f", domain.ErrInvalidRange, startTime, endTime)
	}

	source, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if endTime > source.Duration {
		return nil, fmt.Errorf("%w: end=%.3f duration=%.3f",
			domain.ErrRangeExceedsSource, endTime, source.Duration)
	}

	outputPath := s.store.OutputPath("trimmed")

	if err := s.transformer.Trim(ctx, source.FilePath, startTime, endTime-startTime, outputPath); err != nil {
		s.cleanup(outputPath)
		return nil, err
	}

	return s.persistOutput(ctx, "trim", outputPath)
}

// MergeVideos склеивает видео в порядке videoIds в один ролик.
// Полнота набора проверяется целиком, а не до первого промаха.
func (s *VideoService) MergeVideos(ctx context.Context, videoIDs []int64) (*domain.Video, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("%w: videoIds must be a non-empty array", domain.ErrInvalidInput)
	}
	for _, id := range videoIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid video id %d", domain.ErrInvalidInput, id)
		}
	}

	unique := make(map[int64]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		unique[id] = struct{}{}
	}

	videos, err := s.videoRepo.GetByIDs(ctx, videoIDs)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "merge lookup", Err: err}
	}
	if len(videos) != len(unique) {
		return nil, fmt.Errorf("%w: requested %d, found %d",
			domain.ErrVideoNotFound, len(unique), len(videos))
	}

	byID := make(map[int64]domain.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	// Порядок входов повторяет порядок запроса, не порядок выборки
	inputPaths := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		v := byID[id]
		if !s.store.Exists(v.FilePath) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingArtifact, v.FileName)
		}
		inputPaths = append(inputPaths, v.FilePath)
	}

	outputPath := s.store.OutputPath("merged")

	err = s.transformer.ConcatNormalized(ctx, inputPaths, s.mediaCfg.CanvasWidth, s.mediaCfg.CanvasHeight, outputPath)
	if err != nil {
		s.cleanup(outputPath)
		return nil, err
	}

	return s.persistOutput(ctx, "merge", outputPath)
}

// persistOutput завершает задачу обрезки/склейки: измеряет готовый
// артефакт и сохраняет запись, удаляя файл при любом сбое на этом пути.
func (s *VideoService) persistOutput(ctx context.Context, op, outputPath string) (*domain.Video, error) {
	probe, err := s.prober.Probe(ctx, outputPath)
	if err != nil {
		s.cleanup(outputPath)
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		s.cleanup(outputPath)
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	video := &domain.Video{
		FileName: filepath.Base(outputPath),
		FilePath: outputPath,
		Size:     info.Size(),
		Duration: probe.Duration,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		s.cleanup(outputPath)
		return nil, &domain.PersistenceError{Op: op, Err: err}
	}

	s.archiveAsync(video)

	log.Printf("[VideoService] Completed %s: video %d (%.2fs, %d bytes)",
		op, video.ID, video.Duration, video.Size)
	return video, nil
}

func (s *VideoService) cleanup(path string) {
	if err := s.store.Delete(path); err != nil {
		log.Printf("[VideoService] Failed to clean up %s: %v", path, err)
	}
}

// archiveAsync зеркалирует файл в объектное хранилище, не задерживая
// ответ и не влияя на исход задачи.
func (s *VideoService) archiveAsync(video *domain.Video) {
	if s.archive == nil {
		return
	}
	go func() {
		if err := s.archive.ArchiveVideo(context.Background(), video); err != nil {
			log.Printf("[VideoService] Failed to archive %s: %v", video.FileName, err)
		}
	}()
}
