package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"clipforge/internal/auth"
	"clipforge/internal/config"
	"clipforge/internal/handler"
	"clipforge/internal/media"
	"clipforge/internal/preview"
	"clipforge/internal/repository"
	"clipforge/internal/service"
	"clipforge/internal/service/s3"
	"clipforge/internal/storage"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func main() {
	// Загружаем конфигурацию
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаемся к базе данных
	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Инициализация хранилища артефактов и адаптеров движка
	artifactStore, err := storage.NewArtifactStore(appConfig.Video.UploadDir, appConfig.Video.OutputDir)
	if err != nil {
		log.Fatalf("Failed to create artifact store: %v", err)
	}

	prober := media.NewProber(appConfig.Media)

	transcoder, err := media.NewTranscoder(appConfig.Media)
	if err != nil {
		log.Fatalf("Failed to create transcoder: %v", err)
	}

	// Необязательный архив готовых файлов в S3
	var archive service.Archiver
	if appConfig.Archive.Enabled {
		s3Client, err := s3.NewClient(appConfig.Archive)
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		archive = s3.NewArchive(s3Client, appConfig.Archive.Prefix)
		log.Printf("S3 archive enabled, bucket: %s", appConfig.Archive.Bucket)
	}

	// Инициализация репозиториев
	videoRepo := repository.NewVideoRepository(db)
	linkRepo := repository.NewSharedLinkRepository(db)

	// Инициализация сервисов
	videoService := service.NewVideoService(
		videoRepo,
		prober,
		transcoder,
		artifactStore,
		archive,
		appConfig.Video,
		appConfig.Media,
	)
	shareService := service.NewShareService(linkRepo, videoRepo, artifactStore)

	thumbnailService, err := preview.NewService(videoRepo, appConfig.Media, appConfig.Video.ThumbnailDir)
	if err != nil {
		log.Fatalf("Failed to create thumbnail service: %v", err)
	}

	// Инициализация хендлеров
	videoHandler := handler.NewVideoHandler(videoService, artifactStore, appConfig.Video.MaxUploadSize)
	shareHandler := handler.NewShareHandler(shareService, appConfig.Server.BaseURL)
	thumbnailHandler := preview.NewHandler(thumbnailService)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(appConfig.Server.APIToken))

		r.Route("/videos", func(r chi.Router) {
			r.Post("/upload", videoHandler.UploadVideo)
			r.Post("/{id}/trim", videoHandler.TrimVideo)
			r.Post("/merge", videoHandler.MergeVideos)
			r.Get("/{id}/thumbnail", thumbnailHandler.GetThumbnail)
		})

		r.Route("/share", func(r chi.Router) {
			r.Post("/{videoId}", shareHandler.CreateShareLink)
			r.Get("/{shareToken}", shareHandler.AccessSharedVideo)
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения; читает его только main
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем HTTP сервер
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Запускаем очистку истёкших ссылок
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go shareService.RunCleanupLoop(sweepCtx, 1*time.Hour)

	// Ожидаем сигнал завершения
	<-quit
	log.Println("Shutting down server...")
	stopSweeper()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}
