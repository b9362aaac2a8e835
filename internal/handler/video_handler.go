package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/service"
)

// UploadStore — часть хранилища артефактов, нужная на этапе приёма
// загрузки: создание промежуточного файла и его удаление при сбое.
type UploadStore interface {
	StageUpload() (*os.File, error)
	Delete(path string) error
}

type VideoHandler struct {
	videoService  *service.VideoService
	store         UploadStore
	maxUploadSize int64
}

type trimRequest struct {
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
}

type mergeRequest struct {
	VideoIDs []int64 `json:"videoIds"`
}

func NewVideoHandler(videoService *service.VideoService, store UploadStore, maxUploadSize int64) *VideoHandler {
	return &VideoHandler{
		videoService:  videoService,
		store:         store,
		maxUploadSize: maxUploadSize,
	}
}

// UploadVideo принимает multipart-загрузку с полем video, складывает её
// во временный файл и передаёт оркестратору.
func (h *VideoHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			sendResponse(w, http.StatusBadRequest, nil, "File size exceeds limit")
			return
		}
		log.Printf("[UploadVideo] Failed to parse form: %v", err)
		sendResponse(w, http.StatusBadRequest, nil, "Failed to parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("video")
	if err != nil {
		sendResponse(w, http.StatusBadRequest, nil, "Video file is required")
		return
	}
	defer file.Close()

	staged, err := h.store.StageUpload()
	if err != nil {
		log.Printf("[UploadVideo] Failed to stage upload: %v", err)
		sendResponse(w, http.StatusInternalServerError, nil, "Internal server error")
		return
	}

	written, err := io.Copy(staged, file)
	staged.Close()
	if err != nil {
		h.store.Delete(staged.Name())
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			sendResponse(w, http.StatusBadRequest, nil, "File size exceeds limit")
			return
		}
		log.Printf("[UploadVideo] Failed to save upload: %v", err)
		sendResponse(w, http.StatusInternalServerError, nil, "Internal server error")
		return
	}

	video, err := h.videoService.IngestVideo(r.Context(), staged.Name(), written)
	if err != nil {
		log.Printf("[UploadVideo] Ingest failed: %v", err)
		status, message := mapError(err)
		sendResponse(w, status, nil, message)
		return
	}

	sendResponse(w, http.StatusCreated, video, "Video uploaded successfully!")
}

// TrimVideo обрезает видео по интервалу из тела запроса.
func (h *VideoHandler) TrimVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		sendResponse(w, http.StatusBadRequest, nil, "Invalid video ID format")
		return
	}

	var req trimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartTime == nil || req.EndTime == nil {
		sendResponse(w, http.StatusBadRequest, nil, "Invalid startTime or endTime")
		return
	}

	video, err := h.videoService.TrimVideo(r.Context(), videoID, *req.StartTime, *req.EndTime)
	if err != nil {
		log.Printf("[TrimVideo] Trim failed for video %d: %v", videoID, err)
		status, message := mapError(err)
		sendResponse(w, status, nil, message)
		return
	}

	sendResponse(w, http.StatusCreated, video, "Video trimmed successfully!")
}

// MergeVideos склеивает видео в порядке, заданном в запросе.
func (h *VideoHandler) MergeVideos(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendResponse(w, http.StatusBadRequest, nil, "videoIds must be a non-empty array of video IDs")
		return
	}

	video, err := h.videoService.MergeVideos(r.Context(), req.VideoIDs)
	if err != nil {
		log.Printf("[MergeVideos] Merge failed: %v", err)
		status, message := mapError(err)
		if status == http.StatusNotFound {
			message = "One or more videos not found"
		}
		sendResponse(w, status, nil, message)
		return
	}

	sendResponse(w, http.StatusCreated, video, "Videos merged successfully!")
}
