package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Video    VideoConfig
	Media    MediaConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port     string
	BaseURL  string
	APIToken string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// VideoConfig — политика приёма и хранения видео.
type VideoConfig struct {
	UploadDir     string
	OutputDir     string
	ThumbnailDir  string
	MinDuration   float64 // секунды
	MaxDuration   float64 // секунды
	MaxUploadSize int64   // байты
}

// MediaConfig — пути к бинарям движка и целевые параметры кодирования.
// Передаётся адаптерам при создании, глобального состояния нет.
type MediaConfig struct {
	FFmpegPath    string
	FFprobePath   string
	CanvasWidth   int
	CanvasHeight  int
	VideoCodec    string
	AudioCodec    string
	VideoBitrate  string
	FrameRate     int
	SampleRate    int
	AudioChannels int
}

// ArchiveConfig — необязательное зеркалирование готовых файлов в S3.
type ArchiveConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	// Привязываем переменные окружения
	keys := []string{
		"HTTP_PORT", "BASE_URL", "API_TOKEN",
		"DATABASE_HOST", "DATABASE_PORT", "DATABASE_USER", "DATABASE_PASSWORD",
		"DATABASE_NAME", "DATABASE_SSLMODE",
		"UPLOAD_DIR", "OUTPUT_DIR", "THUMBNAIL_DIR",
		"MIN_DURATION", "MAX_DURATION", "MAX_FILE_SIZE",
		"FFMPEG_PATH", "FFPROBE_PATH",
		"CANVAS_WIDTH", "CANVAS_HEIGHT",
		"VIDEO_CODEC", "AUDIO_CODEC", "VIDEO_BITRATE",
		"FRAME_RATE", "AUDIO_SAMPLE_RATE", "AUDIO_CHANNELS",
		"S3_ENABLED", "S3_ENDPOINT", "S3_REGION",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_BUCKET", "S3_PREFIX",
	}
	for _, key := range keys {
		v.BindEnv(key)
	}

	// Значения по умолчанию
	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("OUTPUT_DIR", "processed")
	v.SetDefault("THUMBNAIL_DIR", "thumbnails")
	v.SetDefault("MIN_DURATION", 1)
	v.SetDefault("MAX_DURATION", 300)
	v.SetDefault("MAX_FILE_SIZE", 100<<20)
	v.SetDefault("FFMPEG_PATH", "ffmpeg")
	v.SetDefault("FFPROBE_PATH", "ffprobe")
	v.SetDefault("CANVAS_WIDTH", 1280)
	v.SetDefault("CANVAS_HEIGHT", 720)
	v.SetDefault("VIDEO_CODEC", "libx264")
	v.SetDefault("AUDIO_CODEC", "aac")
	v.SetDefault("VIDEO_BITRATE", "1000k")
	v.SetDefault("FRAME_RATE", 25)
	v.SetDefault("AUDIO_SAMPLE_RATE", 44100)
	v.SetDefault("AUDIO_CHANNELS", 2)
	v.SetDefault("S3_PREFIX", "videos")

	// Читаем конфигурацию из файла
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: using only environment variables: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("HTTP_PORT"),
			BaseURL:  v.GetString("BASE_URL"),
			APIToken: v.GetString("API_TOKEN"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetString("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Video: VideoConfig{
			UploadDir:     v.GetString("UPLOAD_DIR"),
			OutputDir:     v.GetString("OUTPUT_DIR"),
			ThumbnailDir:  v.GetString("THUMBNAIL_DIR"),
			MinDuration:   v.GetFloat64("MIN_DURATION"),
			MaxDuration:   v.GetFloat64("MAX_DURATION"),
			MaxUploadSize: v.GetInt64("MAX_FILE_SIZE"),
		},
		Media: MediaConfig{
			FFmpegPath:    v.GetString("FFMPEG_PATH"),
			FFprobePath:   v.GetString("FFPROBE_PATH"),
			CanvasWidth:   v.GetInt("CANVAS_WIDTH"),
			CanvasHeight:  v.GetInt("CANVAS_HEIGHT"),
			VideoCodec:    v.GetString("VIDEO_CODEC"),
			AudioCodec:    v.GetString("AUDIO_CODEC"),
			VideoBitrate:  v.GetString("VIDEO_BITRATE"),
			FrameRate:     v.GetInt("FRAME_RATE"),
			SampleRate:    v.GetInt("AUDIO_SAMPLE_RATE"),
			AudioChannels: v.GetInt("AUDIO_CHANNELS"),
		},
		Archive: ArchiveConfig{
			Enabled:         v.GetBool("S3_ENABLED"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("S3_BUCKET"),
			Prefix:          v.GetString("S3_PREFIX"),
		},
	}

	// Проверяем, что все необходимые поля заполнены
	if cfg.Database.Host == "" ||
		cfg.Database.Port == "" ||
		cfg.Database.User == "" ||
		cfg.Database.Name == "" {
		return nil, fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Name)
	}

	if cfg.Server.APIToken == "" {
		return nil, fmt.Errorf("API_TOKEN is required")
	}

	if cfg.Video.MinDuration < 0 || cfg.Video.MaxDuration <= cfg.Video.MinDuration {
		return nil, fmt.Errorf("invalid duration bounds: min=%v, max=%v",
			cfg.Video.MinDuration, cfg.Video.MaxDuration)
	}

	return cfg, nil
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}
