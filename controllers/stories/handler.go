package stories

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/services/media"
)

// mediaField - имя файлового поля формы
const mediaField = "media"

type Handler struct {
	DB    *gorm.DB
	Media media.Store
	Now   func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*authentication.Claims, bool) {
	claims, ok := authentication.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, false
	}
	return claims, true
}
