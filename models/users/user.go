package users

import "time"

const (
	RoleUser      = "user"
	RoleCounselor = "counselor"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"`
	Role      string    `json:"role" gorm:"not null;default:'user'"`
	IsStaff   bool      `json:"is_staff" gorm:"default:false"`
	City      string    `json:"city"`
	Bio       string    `json:"bio" gorm:"type:text"`
	Provider  string    `json:"provider" gorm:"not null;default:'local'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoogleUser - привязка аккаунта Google к пользователю
type GoogleUser struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	User      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	GoogleID  string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"not null"`
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCounselor - может ли пользователь вести консультации
func (u *User) IsCounselor() bool {
	return u.Role == RoleCounselor
}
