package s3

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"

	"clipforge/internal/domain"
)

// Archive зеркалирует готовые видеофайлы в объектное хранилище.
// Архивирование необязательное: сбой логируется и не влияет на задачу.
type Archive struct {
	storage Storage
	prefix  string
}

func NewArchive(storage Storage, prefix string) *Archive {
	return &Archive{
		storage: storage,
		prefix:  prefix,
	}
}

// ArchiveVideo загружает файл видео в хранилище под ключом prefix/fileName.
func (a *Archive) ArchiveVideo(ctx context.Context, video *domain.Video) error {
	file, err := os.Open(video.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open video for archiving: %w", err)
	}
	defer file.Close()

	key := path.Join(a.prefix, video.FileName)
	if err := a.storage.UploadObject(ctx, key, file); err != nil {
		return err
	}

	log.Printf("[Archive] Uploaded %s to object storage as %s", video.FileName, key)
	return nil
}
