package stories

import (
	"net/http"

	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/stories"
)

// sendNotification - ошибка не должна ломать основной запрос
func sendNotification(db *gorm.DB, userID uint, message string) {
	notification := stories.Notification{UserID: userID, Message: message}
	if err := db.Create(&notification).Error; err != nil {
		logger.Logger.WithError(err).WithField("user_id", userID).Warn("send notification")
	}
}

// GetNotifications - уведомления пользователя, новые сверху
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	notifications := []stories.Notification{}
	q := h.DB.Where("user_id = ?", claims.UserID)
	if r.URL.Query().Get("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load notifications", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notifications)
}

// MarkNotificationAsRead - отметить уведомление как прочитанное
func (h *Handler) MarkNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid notification ID", nil)
		return
	}
	res := h.DB.Model(&stories.Notification{}).
		Where("id = ? AND user_id = ?", id, claims.UserID).
		Update("is_read", true)
	if res.Error != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to update notification", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.WriteError(w, http.StatusNotFound, "Notification not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
