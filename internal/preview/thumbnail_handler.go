package preview

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/domain"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetThumbnail отдаёт JPEG-превью видео.
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid video ID format", http.StatusBadRequest)
		return
	}

	thumbnail, err := h.service.GetOrGenerateThumbnail(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, domain.ErrVideoNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		log.Printf("[GetThumbnail] Failed to generate thumbnail for video %d: %v", videoID, err)
		http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(thumbnail)
}
