package stories

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/stories"
)

// feedPageSize - размер страницы ленты
const feedPageSize = 50

type postView struct {
	stories.Post
	AuthorName    string `json:"author_name"`
	LikesCount    int64  `json:"likes_count"`
	CommentsCount int64  `json:"comments_count"`
	Liked         bool   `json:"liked"`
}

type countRow struct {
	PostID uint
	N      int64
}

func countBy(db *gorm.DB, model interface{}, ids []uint) (map[uint]int64, error) {
	var rows []countRow
	err := db.Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.PostID] = row.N
	}
	return out, err
}

// views дополняет посты счётчиками и отметкой лайка текущего пользователя
func (h *Handler) views(posts []stories.Post, userID uint) ([]postView, error) {
	out := make([]postView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likes, err := countBy(h.DB, &stories.Like{}, ids)
	if err != nil {
		return nil, err
	}
	comments, err := countBy(h.DB, &stories.Comment{}, ids)
	if err != nil {
		return nil, err
	}
	var likedIDs []uint
	if err := h.DB.Model(&stories.Like{}).Where("user_id = ? AND post_id IN ?", userID, ids).Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, err
	}
	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	for _, p := range posts {
		out = append(out, postView{
			Post:          p,
			AuthorName:    p.DisplayName(p.Author.Name),
			LikesCount:    likes[p.ID],
			CommentsCount: comments[p.ID],
			Liked:         liked[p.ID],
		})
	}
	return out, nil
}

// ListPosts - лента, новые сверху; ?before=<id> для следующей страницы
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	q := h.DB.Preload("Author").Order("created_at DESC, id DESC").Limit(feedPageSize)
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid before", nil)
			return
		}
		q = q.Where("id < ?", before)
	}
	var posts []stories.Post
	if err := q.Find(&posts).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load posts", nil)
		return
	}
	out, err := h.views(posts, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load posts", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// CreatePost - пост с текстом, медиа или репостом
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	f, err := httpx.ReadForm(r, mediaField)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	defer f.Close()

	post := stories.Post{
		AuthorID:      claims.UserID,
		Content:       f.Get("content"),
		IsAnonymous:   f.Flag("is_anonymous", false),
		AllowComments: f.Flag("allow_comments", true),
	}
	if post.IsAnonymous {
		post.Pseudonym = f.Get("pseudonym")
	}
	if raw := f.Get("shared_post_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid shared_post_id", nil)
			return
		}
		var shared stories.Post
		if err := h.DB.First(&shared, id).Error; err != nil {
			httpx.WriteError(w, http.StatusNotFound, "Shared post not found", nil)
			return
		}
		sharedID := shared.ID
		post.SharedPostID = &sharedID
	}
	if len(post.Pseudonym) > 80 {
		httpx.WriteError(w, http.StatusBadRequest, "Pseudonym is too long", nil)
		return
	}
	if post.Content == "" && f.File == nil && post.SharedPostID == nil {
		httpx.WriteError(w, http.StatusBadRequest, "Post cannot be empty", nil)
		return
	}

	url, ok := httpx.Upload(w, r, h.Media, f)
	if !ok {
		return
	}
	post.MediaURL = url

	if err := h.DB.Create(&post).Error; err != nil {
		logger.Logger.WithError(err).Error("create post")
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create post", nil)
		return
	}
	h.DB.Preload("Author").First(&post, post.ID)
	out, err := h.views([]stories.Post{post}, claims.UserID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load post", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out[0])
}

// DeletePost - удалить может автор или персонал
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}
	if post.AuthorID != claims.UserID && !claims.IsStaff {
		httpx.WriteError(w, http.StatusForbidden, "Forbidden", nil)
		return
	}
	if err := h.DB.Delete(post).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to delete post", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "post_id": post.ID})
}

func (h *Handler) findPost(w http.ResponseWriter, r *http.Request) (*stories.Post, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid post ID", nil)
		return nil, false
	}
	var post stories.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Post not found", nil)
		} else {
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to load post", nil)
		}
		return nil, false
	}
	return &post, true
}
