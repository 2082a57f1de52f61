package stories

import (
	"fmt"
	"net/http"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/stories"
)

type commentView struct {
	stories.Comment
	UserName string `json:"user_name"`
}

// ListComments - комментарии к посту, старые сверху
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}
	var comments []stories.Comment
	if err := h.DB.Preload("User").Where("post_id = ?", post.ID).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load comments", nil)
		return
	}
	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView{Comment: c, UserName: c.User.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type commentRequest struct {
	Text string `json:"text"`
}

// CreateComment - комментарий, если автор поста их не отключил
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}
	if !post.AllowComments {
		httpx.WriteError(w, http.StatusBadRequest, "Comments are disabled for this post", nil)
		return
	}
	f, err := httpx.ReadForm(r, mediaField)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	defer f.Close()
	text := f.Get("text")
	if text == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Comment cannot be empty", nil)
		return
	}

	comment := stories.Comment{PostID: post.ID, UserID: claims.UserID, Text: text}
	if err := h.DB.Create(&comment).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to add comment", nil)
		return
	}
	var count int64
	h.DB.Model(&stories.Comment{}).Where("post_id = ?", post.ID).Count(&count)

	if post.AuthorID != claims.UserID {
		sendNotification(h.DB, post.AuthorID, fmt.Sprintf("New comment on your post #%d", post.ID))
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"comment":       comment,
		"comment_count": count,
	})
}
