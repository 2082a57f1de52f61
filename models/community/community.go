package community

import (
	"time"

	"sisterhood-backend/models/users"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type Group struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:200;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	CreatorID   uint          `gorm:"index;not null" json:"creator_id"`
	Creator     users.User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Visibility  string        `gorm:"type:varchar(10);not null;default:'public'" json:"visibility"`
	CoverURL    string        `gorm:"type:text" json:"cover_url"`
	IsActive    bool          `gorm:"not null" json:"is_active"`
	Members     []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE;" json:"-"`
	Discussions []Discussion  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type GroupMember struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	GroupID  uint       `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	User     users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Role     string     `gorm:"type:varchar(10);not null;default:'member'" json:"role"`
	JoinedAt time.Time  `gorm:"autoCreateTime" json:"joined_at"`
}

type Discussion struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	GroupID   uint                `gorm:"index;not null" json:"group_id"`
	AuthorID  uint                `gorm:"index;not null" json:"author_id"`
	Author    users.User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title     string              `gorm:"size:200" json:"title"`
	Content   string              `gorm:"type:text;not null" json:"content"`
	IsPinned  bool                `gorm:"default:false" json:"is_pinned"`
	Likes     []DiscussionLike    `gorm:"foreignKey:DiscussionID;constraint:OnDelete:CASCADE;" json:"-"`
	Comments  []DiscussionComment `gorm:"foreignKey:DiscussionID;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type DiscussionLike struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DiscussionID uint       `gorm:"not null;uniqueIndex:idx_discussion_like" json:"discussion_id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_discussion_like" json:"user_id"`
	User         users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type DiscussionComment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DiscussionID uint       `gorm:"index;not null" json:"discussion_id"`
	AuthorID     uint       `gorm:"index;not null" json:"author_id"`
	Author       users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
