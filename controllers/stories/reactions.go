package stories

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/stories"
)

type likeResponse struct {
	PostID     uint  `json:"post_id"`
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// ToggleLike - поставить или снять лайк
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}

	resp := likeResponse{PostID: post.ID}
	created := false
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var like stories.Like
		err := tx.Where("user_id = ? AND post_id = ?", claims.UserID, post.ID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			added, err := addLike(tx, claims.UserID, post.ID)
			if err != nil {
				return err
			}
			resp.Liked, created = true, added
		default:
			return err
		}
		return tx.Model(&stories.Like{}).Where("post_id = ?", post.ID).Count(&resp.LikesCount).Error
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to toggle like", nil)
		return
	}

	if created && post.AuthorID != claims.UserID {
		sendNotification(h.DB, post.AuthorID, fmt.Sprintf("Someone liked your post #%d", post.ID))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// addLike вставляет лайк; false - лайк уже поставлен параллельным запросом
func addLike(tx *gorm.DB, userID, postID uint) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&stories.Like{UserID: userID, PostID: postID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
