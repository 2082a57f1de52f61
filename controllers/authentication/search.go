package authentication

import (
	"net/http"
	"strings"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/users"
)

// SearchUsers: поиск участниц по имени и городу
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	city := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("city")))

	query := h.DB.Model(&users.User{})
	if q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+q+"%")
	}
	if city != "" {
		query = query.Where("LOWER(city) = ?", city)
	}

	found := []users.User{}
	if err := query.Order("name").Limit(50).Find(&found).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error fetching users", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, found)
}
