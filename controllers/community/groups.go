package community

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/community"
	"sisterhood-backend/validation"
)

type groupView struct {
	community.Group
	MemberCount int64 `json:"member_count"`
	IsMember    bool  `json:"is_member"`
}

type memberCount struct {
	GroupID uint
	N       int64
}

func (h *Handler) groupViews(groups []community.Group, userID uint) ([]groupView, error) {
	out := make([]groupView, 0, len(groups))
	if len(groups) == 0 {
		return out, nil
	}
	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	var rows []memberCount
	if err := h.DB.Model(&community.GroupMember{}).
		Select("group_id, COUNT(*) AS n").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.N
	}
	var mine []uint
	if err := h.DB.Model(&community.GroupMember{}).Where("user_id = ? AND group_id IN ?", userID, ids).Pluck("group_id", &mine).Error; err != nil {
		return nil, err
	}
	member := make(map[uint]bool, len(mine))
	for _, id := range mine {
		member[id] = true
	}
	for _, g := range groups {
		out = append(out, groupView{Group: g, MemberCount: counts[g.ID], IsMember: member[g.ID]})
	}
	return out, nil
}

// ListGroups - активные публичные группы и группы пользователя
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	mine := h.DB.Model(&community.GroupMember{}).Select("group_id").Where("user_id = ?", claims.UserID)
	q := h.DB.Where("is_active = ?", true).
		Where(h.DB.Where("visibility = ?", community.VisibilityPublic).Or("id IN (?)", mine))
	if search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+search+"%")
	}
	var groups []community.Group
	if err := q.Order("created_at DESC, id DESC").Find(&groups).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load groups", nil)
		return
	}
	out, err := h.groupViews(groups, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load groups", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type groupRequest struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"required"`
	Visibility  string `validate:"oneof=public private"`
}

// CreateGroup - создатель сразу становится администратором группы
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	f, err := httpx.ReadForm(r, "cover")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	defer f.Close()

	req := groupRequest{Name: f.Get("name"), Description: f.Get("description"), Visibility: f.Get("visibility")}
	if req.Visibility == "" {
		req.Visibility = community.VisibilityPublic
	}
	if err := h.Validator.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
		return
	}
	cover, ok := httpx.Upload(w, r, h.Media, f)
	if !ok {
		return
	}

	group := community.Group{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		CreatorID:   claims.UserID,
		CoverURL:    cover,
		IsActive:    true,
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Create(&community.GroupMember{GroupID: group.ID, UserID: claims.UserID, Role: community.RoleAdmin}).Error
	})
	if err != nil {
		logger.Logger.WithError(err).Error("create group")
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create group", nil)
		return
	}
	logger.Logger.WithFields(logrus.Fields{"group_id": group.ID, "creator_id": claims.UserID}).Info("group created")
	httpx.WriteJSON(w, http.StatusCreated, groupView{Group: group, MemberCount: 1, IsMember: true})
}

type memberView struct {
	community.GroupMember
	Name string `json:"name"`
}

type groupDetail struct {
	groupView
	IsCreator   bool             `json:"is_creator"`
	Role        string           `json:"role,omitempty"`
	Discussions []discussionView `json:"discussions"`
	Members     []memberView     `json:"members"`
}

// GetGroup - группа с обсуждениями (закреплённые сверху) и первыми участниками
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	group, ok := h.findGroup(w, r, false)
	if !ok {
		return
	}
	member, isMember, err := h.membership(group.ID, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to check membership", nil)
		return
	}
	if group.Visibility == community.VisibilityPrivate && !isMember && !claims.IsStaff {
		httpx.WriteError(w, http.StatusForbidden, "This is a private group", nil)
		return
	}

	views, err := h.groupViews([]community.Group{*group}, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load group", nil)
		return
	}

	var discussions []community.Discussion
	if err := h.DB.Preload("Author").Where("group_id = ?", group.ID).
		Order("is_pinned DESC, created_at DESC, id DESC").Find(&discussions).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load discussions", nil)
		return
	}
	dViews, err := h.discussionViews(discussions, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load discussions", nil)
		return
	}

	var members []community.GroupMember
	if err := h.DB.Preload("User").Where("group_id = ?", group.ID).
		Order("joined_at DESC, id DESC").Limit(10).Find(&members).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load members", nil)
		return
	}
	mViews := make([]memberView, 0, len(members))
	for _, m := range members {
		mViews = append(mViews, memberView{GroupMember: m, Name: m.User.Name})
	}

	detail := groupDetail{
		groupView:   views[0],
		IsCreator:   group.CreatorID == claims.UserID,
		Discussions: dViews,
		Members:     mViews,
	}
	if isMember {
		detail.Role = member.Role
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

// JoinGroup - вступление в публичную группу; повторное вступление ничего не меняет
func (h *Handler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	group, ok := h.findGroup(w, r, true)
	if !ok {
		return
	}
	_, isMember, err := h.membership(group.ID, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to check membership", nil)
		return
	}
	if isMember {
		httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "joined": false, "message": "Already a member"})
		return
	}
	if group.Visibility == community.VisibilityPrivate {
		httpx.WriteError(w, http.StatusForbidden, "This is a private group. You need an invitation to join.", nil)
		return
	}
	if err := h.DB.Create(&community.GroupMember{GroupID: group.ID, UserID: claims.UserID, Role: community.RoleMember}).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to join group", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "joined": true})
}

// LeaveGroup - создатель покинуть свою группу не может
func (h *Handler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	group, ok := h.findGroup(w, r, false)
	if !ok {
		return
	}
	_, isMember, err := h.membership(group.ID, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to check membership", nil)
		return
	}
	if !isMember {
		httpx.WriteError(w, http.StatusConflict, "You are not a member of this group", nil)
		return
	}
	if group.CreatorID == claims.UserID {
		httpx.WriteError(w, http.StatusForbidden, "Group creators cannot leave their groups", nil)
		return
	}
	if err := h.DB.Where("group_id = ? AND user_id = ?", group.ID, claims.UserID).Delete(&community.GroupMember{}).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to leave group", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
