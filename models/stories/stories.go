package stories

import (
	"time"

	"sisterhood-backend/models/users"
)

const StoryLifetime = 24 * time.Hour

type StoryType string

const (
	StoryText  StoryType = "text"
	StoryImage StoryType = "image"
	StoryVideo StoryType = "video"
)

type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AuthorID      uint       `gorm:"index;not null" json:"author_id"`
	Author        users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content       string     `gorm:"type:text" json:"content"`
	MediaURL      string     `gorm:"type:text" json:"media_url"`
	SharedPostID  *uint      `gorm:"index" json:"shared_post_id"`
	SharedPost    *Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	IsAnonymous   bool       `gorm:"default:false" json:"is_anonymous"`
	Pseudonym     string     `gorm:"size:80" json:"pseudonym"`
	AllowComments bool       `gorm:"not null" json:"allow_comments"`
	Likes         []Like     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"-"`
	Comments      []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// DisplayName - имя автора с учётом анонимности
func (p *Post) DisplayName(authorName string) string {
	if !p.IsAnonymous {
		return authorName
	}
	if p.Pseudonym != "" {
		return p.Pseudonym
	}
	return "Anonymous"
}

type Like struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	User      users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint       `gorm:"not null;uniqueIndex:idx_like_user_post" json:"post_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    uint       `gorm:"index;not null" json:"post_id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	User      users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text      string     `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type Story struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	User      users.User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	StoryType StoryType   `gorm:"type:varchar(10);not null" json:"story_type"`
	Content   string      `gorm:"type:text" json:"content"`
	MediaURL  string      `gorm:"type:text" json:"media_url"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time   `gorm:"index;not null" json:"expires_at"`
	Views     []StoryView `gorm:"foreignKey:StoryID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Active - история ещё не истекла
func (s *Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

type StoryView struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	StoryID  uint      `gorm:"not null;uniqueIndex:idx_story_view" json:"story_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_story_view;index" json:"user_id"`
	ViewedAt time.Time `gorm:"autoCreateTime" json:"viewed_at"`
}

// Notification - уведомление автору о лайке или комментарии
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	User      users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	IsRead    bool       `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
