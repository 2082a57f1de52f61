package authentication

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/stories"
	"sisterhood-backend/models/users"
	"sisterhood-backend/validation"
)

type profileResponse struct {
	User  users.User     `json:"user"`
	Posts []stories.Post `json:"posts"`
}

// GetProfile - профиль и собственные публикации
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	posts := []stories.Post{}
	if err := h.DB.Where("author_id = ?", user.ID).Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error loading posts", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse{User: *user, Posts: posts})
}

type updateProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,max=120"`
	City *string `json:"city" validate:"omitempty,max=120"`
	Bio  *string `json:"bio" validate:"omitempty,max=2000"`
}

// UpdateProfile - обновляются только переданные поля
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.City != nil {
		updates["city"] = strings.TrimSpace(*req.City)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) > 0 {
		if err := h.DB.Model(user).Updates(updates).Error; err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "Error updating profile", nil)
			return
		}
	}
	if err := h.DB.First(user, user.ID).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error loading user", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// DeleteAccount - удаление аккаунта вместе с публикациями
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", user.ID).Delete(&stories.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&users.User{}, user.ID).Error
	})
	if err != nil {
		logger.Logger.WithError(err).WithField("user_id", user.ID).Error("delete account")
		httpx.WriteError(w, http.StatusConflict, "Account could not be deleted", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
