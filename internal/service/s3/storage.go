package s3

import (
	"context"
	"io"
)

// Storage определяет операции с S3-совместимым хранилищем,
// которые нужны архиву готовых видеофайлов.
type Storage interface {
	UploadObject(ctx context.Context, key string, body io.Reader) error
	DeleteObject(ctx context.Context, key string) error
}
