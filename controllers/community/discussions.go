package community

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/community"
)

type discussionView struct {
	community.Discussion
	AuthorName   string `json:"author_name"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	Liked        bool   `json:"liked"`
}

type discussionCount struct {
	DiscussionID uint
	N            int64
}

func countByDiscussion(db *gorm.DB, model interface{}, ids []uint) (map[uint]int64, error) {
	var rows []discussionCount
	err := db.Model(model).
		Select("discussion_id, COUNT(*) AS n").
		Where("discussion_id IN ?", ids).
		Group("discussion_id").
		Scan(&rows).Error
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.DiscussionID] = row.N
	}
	return out, err
}

func (h *Handler) discussionViews(discussions []community.Discussion, userID uint) ([]discussionView, error) {
	out := make([]discussionView, 0, len(discussions))
	if len(discussions) == 0 {
		return out, nil
	}
	ids := make([]uint, len(discussions))
	for i, d := range discussions {
		ids[i] = d.ID
	}
	likes, err := countByDiscussion(h.DB, &community.DiscussionLike{}, ids)
	if err != nil {
		return nil, err
	}
	comments, err := countByDiscussion(h.DB, &community.DiscussionComment{}, ids)
	if err != nil {
		return nil, err
	}
	var likedIDs []uint
	if err := h.DB.Model(&community.DiscussionLike{}).
		Where("user_id = ? AND discussion_id IN ?", userID, ids).
		Pluck("discussion_id", &likedIDs).Error; err != nil {
		return nil, err
	}
	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}
	for _, d := range discussions {
		out = append(out, discussionView{
			Discussion:   d,
			AuthorName:   d.Author.Name,
			LikeCount:    likes[d.ID],
			CommentCount: comments[d.ID],
			Liked:        liked[d.ID],
		})
	}
	return out, nil
}

type discussionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateDiscussion - новое обсуждение, только для участников группы
func (h *Handler) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	group, ok := h.findGroup(w, r, true)
	if !ok {
		return
	}
	if _, ok := h.requireMember(w, group.ID, claims.UserID, "You must be a member to create discussions"); !ok {
		return
	}
	var req discussionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	req.Title, req.Content = strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if req.Content == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Content is required", map[string]string{"Content": "required"})
		return
	}
	if len(req.Title) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "Title is too long", map[string]string{"Title": "max"})
		return
	}

	discussion := community.Discussion{GroupID: group.ID, AuthorID: claims.UserID, Title: req.Title, Content: req.Content}
	if err := h.DB.Create(&discussion).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create discussion", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, discussion)
}

type commentView struct {
	community.DiscussionComment
	AuthorName string `json:"author_name"`
}

type discussionDetail struct {
	discussionView
	IsMember bool          `json:"is_member"`
	Comments []commentView `json:"comments"`
}

// GetDiscussion - обсуждение с комментариями, старые сверху
func (h *Handler) GetDiscussion(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	discussion, ok := h.findDiscussion(w, r)
	if !ok {
		return
	}
	_, isMember, err := h.membership(discussion.GroupID, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to check membership", nil)
		return
	}
	var group community.Group
	if err := h.DB.First(&group, discussion.GroupID).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load group", nil)
		return
	}
	if group.Visibility == community.VisibilityPrivate && !isMember && !claims.IsStaff {
		httpx.WriteError(w, http.StatusForbidden, "This is a private group", nil)
		return
	}

	views, err := h.discussionViews([]community.Discussion{*discussion}, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load discussion", nil)
		return
	}
	var comments []community.DiscussionComment
	if err := h.DB.Preload("Author").Where("discussion_id = ?", discussion.ID).
		Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load comments", nil)
		return
	}
	cViews := make([]commentView, 0, len(comments))
	for _, c := range comments {
		cViews = append(cViews, commentView{DiscussionComment: c, AuthorName: c.Author.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, discussionDetail{discussionView: views[0], IsMember: isMember, Comments: cViews})
}

type likeResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// ToggleDiscussionLike - лайк обсуждения, только для участников
func (h *Handler) ToggleDiscussionLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	discussion, ok := h.findDiscussion(w, r)
	if !ok {
		return
	}
	if _, ok := h.requireMember(w, discussion.GroupID, claims.UserID, "You must be a member to like discussions."); !ok {
		return
	}

	var resp likeResponse
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var like community.DiscussionLike
		err := tx.Where("discussion_id = ? AND user_id = ?", discussion.ID, claims.UserID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&community.DiscussionLike{DiscussionID: discussion.ID, UserID: claims.UserID}).Error; err != nil {
				return err
			}
			resp.Liked = true
		default:
			return err
		}
		return tx.Model(&community.DiscussionLike{}).Where("discussion_id = ?", discussion.ID).Count(&resp.LikeCount).Error
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to toggle like", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// CreateComment - комментарий к обсуждению, только для участников
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	discussion, ok := h.findDiscussion(w, r)
	if !ok {
		return
	}
	if _, ok := h.requireMember(w, discussion.GroupID, claims.UserID, "You must be a member to comment."); !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Comment cannot be empty", nil)
		return
	}
	comment := community.DiscussionComment{DiscussionID: discussion.ID, AuthorID: claims.UserID, Content: content}
	if err := h.DB.Create(&comment).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to add comment", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, comment)
}

// PinDiscussion - закрепление обсуждения администратором или модератором группы
func (h *Handler) PinDiscussion(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	discussion, ok := h.findDiscussion(w, r)
	if !ok {
		return
	}
	member, ok := h.requireMember(w, discussion.GroupID, claims.UserID, "Only group moderators can pin discussions")
	if !ok {
		return
	}
	if member.Role != community.RoleAdmin && member.Role != community.RoleModerator {
		httpx.WriteError(w, http.StatusForbidden, "Only group moderators can pin discussions", nil)
		return
	}
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	if err := h.DB.Model(discussion).Update("is_pinned", req.Pinned).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to update discussion", nil)
		return
	}
	discussion.IsPinned = req.Pinned
	httpx.WriteJSON(w, http.StatusOK, discussion)
}
