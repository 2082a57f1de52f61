package stories

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/stories"
	"sisterhood-backend/services/media"
)

type storyView struct {
	stories.Story
	UserName string `json:"user_name"`
}

func storyViews(list []stories.Story) []storyView {
	out := make([]storyView, 0, len(list))
	for _, s := range list {
		out = append(out, storyView{Story: s, UserName: s.User.Name})
	}
	return out
}

// CreateStory - история на 24 часа; тип определяется по загруженному файлу
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
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

	now := h.now()
	story := stories.Story{
		UserID:    claims.UserID,
		StoryType: stories.StoryText,
		Content:   f.Get("content"),
		CreatedAt: now,
		ExpiresAt: now.Add(stories.StoryLifetime),
	}
	if f.File != nil {
		kind := media.KindOf(f.ContentType())
		if kind == "" {
			httpx.WriteError(w, http.StatusBadRequest, "Only images and videos are supported", nil)
			return
		}
		story.StoryType = stories.StoryType(kind)
	} else if story.Content == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Story cannot be empty", nil)
		return
	}

	url, ok := httpx.Upload(w, r, h.Media, f)
	if !ok {
		return
	}
	story.MediaURL = url

	if err := h.DB.Create(&story).Error; err != nil {
		logger.Logger.WithError(err).Error("create story")
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to save story", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, story)
}

// ListStories - активные истории, которые пользователь ещё не смотрел
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	viewed := h.DB.Model(&stories.StoryView{}).Select("story_id").Where("user_id = ?", claims.UserID)
	var list []stories.Story
	err := h.DB.Preload("User").
		Where("expires_at > ?", h.now()).
		Where("id NOT IN (?)", viewed).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load stories", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, storyViews(list))
}

// activeStory - история из пути; истёкшая считается отсутствующей
func (h *Handler) activeStory(w http.ResponseWriter, r *http.Request) (*stories.Story, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid story ID", nil)
		return nil, false
	}
	var story stories.Story
	err := h.DB.Preload("User").Where("expires_at > ?", h.now()).First(&story, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "Story not found", nil)
		return nil, false
	}
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load story", nil)
		return nil, false
	}
	return &story, true
}

func (h *Handler) markViewed(storyID, userID uint) error {
	return h.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&stories.StoryView{StoryID: storyID, UserID: userID}).Error
}

// ViewStory - отметка о просмотре; повторный вызов ничего не меняет
func (h *Handler) ViewStory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	story, ok := h.activeStory(w, r)
	if !ok {
		return
	}
	if err := h.markViewed(story.ID, claims.UserID); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to mark story as viewed", nil)
		return
	}
	var views int64
	h.DB.Model(&stories.StoryView{}).Where("story_id = ?", story.ID).Count(&views)
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "story_id": story.ID, "views": views})
}

type storyDetail struct {
	Story       storyView   `json:"story"`
	UserStories []storyView `json:"user_stories"`
}

// GetStory - история и остальные активные истории автора
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	story, ok := h.activeStory(w, r)
	if !ok {
		return
	}
	if err := h.markViewed(story.ID, claims.UserID); err != nil {
		logger.Logger.WithError(err).Warn("mark story viewed")
	}

	var others []stories.Story
	if err := h.DB.Preload("User").
		Where("user_id = ? AND id <> ? AND expires_at > ?", story.UserID, story.ID, h.now()).
		Order("created_at ASC, id ASC").
		Find(&others).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load stories", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, storyDetail{
		Story:       storyView{Story: *story, UserName: story.User.Name},
		UserStories: storyViews(others),
	})
}

// DeleteStory - удалить может только автор
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid story ID", nil)
		return
	}
	var story stories.Story
	if err := h.DB.First(&story, id).Error; err != nil {
		httpx.WriteError(w, http.StatusNotFound, "Story not found", nil)
		return
	}
	if story.UserID != claims.UserID && !claims.IsStaff {
		httpx.WriteError(w, http.StatusForbidden, "Forbidden", nil)
		return
	}
	if err := h.DB.Delete(&story).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to delete story", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
