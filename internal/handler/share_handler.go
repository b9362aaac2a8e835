package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/service"
)

type ShareHandler struct {
	shareService *service.ShareService
	baseURL      string
}

type createShareRequest struct {
	ExpiryTime *float64 `json:"expiryTime"`
}

type shareLinkResponse struct {
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewShareHandler(shareService *service.ShareService, baseURL string) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		baseURL:      baseURL,
	}
}

// CreateShareLink выдаёт временную публичную ссылку на видео.
func (h *ShareHandler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "videoId"), 10, 64)
	if err != nil {
		sendResponse(w, http.StatusBadRequest, nil, "Invalid video ID format")
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExpiryTime == nil {
		sendResponse(w, http.StatusBadRequest, nil, "Invalid expiry time")
		return
	}

	link, err := h.shareService.CreateShareLink(r.Context(), videoID, *req.ExpiryTime)
	if err != nil {
		log.Printf("[CreateShareLink] Failed for video %d: %v", videoID, err)
		status, message := mapError(err)
		sendResponse(w, status, nil, message)
		return
	}

	sendResponse(w, http.StatusCreated, shareLinkResponse{
		Link:      fmt.Sprintf("%s/api/share/%s", h.baseURL, link.ShareToken),
		ExpiresAt: link.ExpiresAt,
	}, "Share link created successfully!")
}

// AccessSharedVideo отдаёт файл видео по действующему токену.
func (h *ShareHandler) AccessSharedVideo(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "shareToken")
	if token == "" {
		sendResponse(w, http.StatusBadRequest, nil, "Share token is required")
		return
	}

	video, err := h.shareService.AccessShared(r.Context(), token)
	if err != nil {
		log.Printf("[AccessSharedVideo] Access denied for token: %v", err)
		status, message := mapError(err)
		sendResponse(w, status, nil, message)
		return
	}

	file, err := os.Open(video.FilePath)
	if err != nil {
		log.Printf("[AccessSharedVideo] Failed to open %s: %v", video.FilePath, err)
		sendResponse(w, http.StatusInternalServerError, nil, "Video file path is missing")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", video.FileName))
	http.ServeContent(w, r, video.FileName, video.CreatedAt, file)
}
