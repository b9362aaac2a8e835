package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ArtifactStore владеет файлами на диске: временными загрузками в uploadDir
// и готовыми артефактами в outputDir. Метаданные живут отдельно в базе.
type ArtifactStore struct {
	uploadDir string
	outputDir string
}

func NewArtifactStore(uploadDir, outputDir string) (*ArtifactStore, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &ArtifactStore{
		uploadDir: uploadDir,
		outputDir: outputDir,
	}, nil
}

// StageUpload создаёт временный файл для принимаемой загрузки.
// Вызывающий обязан закрыть файл; имя уникально в пределах uploadDir.
func (s *ArtifactStore) StageUpload() (*os.File, error) {
	f, err := os.CreateTemp(s.uploadDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return f, nil
}

// Finalize переименовывает промежуточный файл в каноническую форму
// с заданным расширением и возвращает итоговый путь.
func (s *ArtifactStore) Finalize(stagedPath, ext string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(stagedPath), filepath.Ext(stagedPath))
	finalPath := filepath.Join(filepath.Dir(stagedPath), base+ext)

	if err := os.Rename(stagedPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", stagedPath, err)
	}

	return finalPath, nil
}

// OutputPath возвращает уникальный путь для нового артефакта.
// Уникальность имени исключает коллизии параллельных задач без блокировок.
func (s *ArtifactStore) OutputPath(prefix string) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%s-%s.mp4", prefix, uuid.NewString()))
}

func (s *ArtifactStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой,
// поэтому компенсирующую очистку можно вызывать безусловно.
func (s *ArtifactStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
