package domain

import "time"

// Video представляет один сохранённый видеофайл: загруженный напрямую
// или созданный операцией обрезки/склейки.
type Video struct {
	ID        int64     `json:"id" db:"id"`
	FileName  string    `json:"fileName" db:"file_name"`
	FilePath  string    `json:"filePath" db:"file_path"`
	Size      int64     `json:"size" db:"size"`
	Duration  float64   `json:"duration" db:"duration"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
