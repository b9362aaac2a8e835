package handler

import (
	"errors"
	"net/http"

	"clipforge/internal/domain"
)

// mapError переводит доменную ошибку в HTTP-статус и сообщение клиенту.
// Детали движка и стека остаются в логах, наружу уходит только категория.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrRangeExceedsSource):
		return http.StatusBadRequest, "Invalid startTime or endTime"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "videoIds must be a non-empty array of video IDs"
	case errors.Is(err, domain.ErrInvalidExpiry):
		return http.StatusBadRequest, "Invalid expiry time"
	case errors.Is(err, domain.ErrDurationOutOfBounds):
		return http.StatusBadRequest, "Video duration out of bounds"
	case errors.Is(err, domain.ErrVideoNotFound):
		return http.StatusNotFound, "Video not found"
	case errors.Is(err, domain.ErrLinkNotFound):
		return http.StatusNotFound, "Link not found"
	case errors.Is(err, domain.ErrLinkExpired):
		return http.StatusGone, "Link expired"
	case errors.Is(err, domain.ErrMissingFilePath):
		return http.StatusInternalServerError, "Video file path is missing"
	case errors.Is(err, domain.ErrMissingArtifact):
		return http.StatusInternalServerError, "Video file is missing"
	}

	var probeErr *domain.ProbeError
	var transformErr *domain.TransformError
	if errors.As(err, &probeErr) || errors.As(err, &transformErr) {
		return http.StatusInternalServerError, "Failed to process video"
	}

	return http.StatusInternalServerError, "Internal server error"
}
