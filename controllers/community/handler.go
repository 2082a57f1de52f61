package community

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/community"
	"sisterhood-backend/services/media"
	"sisterhood-backend/validation"
)

type Handler struct {
	DB        *gorm.DB
	Media     media.Store
	Validator *validation.Validator
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*authentication.Claims, bool) {
	claims, ok := authentication.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, false
	}
	return claims, true
}

// membership - роль пользователя в группе; ok=false, если не состоит
func (h *Handler) membership(groupID, userID uint) (community.GroupMember, bool, error) {
	var member community.GroupMember
	err := h.DB.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member, false, nil
	}
	return member, err == nil, err
}

func (h *Handler) findGroup(w http.ResponseWriter, r *http.Request, activeOnly bool) (*community.Group, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid group ID", nil)
		return nil, false
	}
	q := h.DB
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var group community.Group
	if err := q.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Group not found", nil)
		} else {
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to load group", nil)
		}
		return nil, false
	}
	return &group, true
}

func (h *Handler) findDiscussion(w http.ResponseWriter, r *http.Request) (*community.Discussion, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid discussion ID", nil)
		return nil, false
	}
	var discussion community.Discussion
	if err := h.DB.Preload("Author").First(&discussion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Discussion not found", nil)
		} else {
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to load discussion", nil)
		}
		return nil, false
	}
	return &discussion, true
}

// requireMember пишет 403, если пользователь не состоит в группе
func (h *Handler) requireMember(w http.ResponseWriter, groupID, userID uint, message string) (community.GroupMember, bool) {
	member, ok, err := h.membership(groupID, userID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to check membership", nil)
		return member, false
	}
	if !ok {
		httpx.WriteError(w, http.StatusForbidden, message, nil)
		return member, false
	}
	return member, true
}
