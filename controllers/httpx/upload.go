package httpx

import (
	"errors"
	"net/http"

	"sisterhood-backend/logger"
	"sisterhood-backend/services/media"
)

// Upload сохраняет файл формы в хранилище; пустая ссылка, если файла нет
func Upload(w http.ResponseWriter, r *http.Request, store media.Store, f *Form) (string, bool) {
	if f.File == nil {
		return "", true
	}
	url, err := store.Upload(r.Context(), f.Header.Filename, f.ContentType(), f.File)
	if errors.Is(err, media.ErrNoStorage) {
		WriteError(w, http.StatusServiceUnavailable, "Media uploads are not available", nil)
		return "", false
	}
	if err != nil {
		logger.Logger.WithError(err).Error("media upload")
		WriteError(w, http.StatusBadGateway, "Failed to upload media", nil)
		return "", false
	}
	return url, true
}
