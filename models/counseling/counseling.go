package counseling

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"sisterhood-backend/models/users"
)

type Mode string

const (
	ModeChat  Mode = "chat"
	ModeVoice Mode = "voice"
	ModeVideo Mode = "video"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Terminal - из завершённых и отменённых записей переходов нет
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active - запись удерживает слот
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// StringList хранится как text[] в Postgres и как литерал массива в остальных СУБД
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type CounselorProfile struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User            users.User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FullName        string     `gorm:"size:120;not null" json:"full_name"`
	LicenseNo       string     `gorm:"size:80;uniqueIndex;not null" json:"license_no"`
	Specialization  string     `gorm:"size:120" json:"specialization"`
	Languages       StringList `json:"languages"`
	YearsExperience int        `gorm:"default:0" json:"years_experience"`
	Bio             string     `gorm:"type:text" json:"bio"`
	PhotoURL        string     `json:"photo_url"`
	Verified        bool       `gorm:"default:false" json:"verified"`
	Eligible        bool       `gorm:"default:false" json:"eligible"` // политика платформы: только консультанты-женщины
	AvailableChat   bool       `gorm:"not null" json:"available_chat"`
	AvailableVoice  bool       `gorm:"not null" json:"available_voice"`
	AvailableVideo  bool       `gorm:"not null" json:"available_video"`
	Rating          *float64   `gorm:"type:decimal(3,2)" json:"rating"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Bookable - к консультанту можно записаться
func (p *CounselorProfile) Bookable() bool {
	return p.Verified && p.Eligible
}

// Supports - поддерживает ли консультант формат сессии
func (p *CounselorProfile) Supports(m Mode) bool {
	switch m {
	case ModeChat:
		return p.AvailableChat
	case ModeVoice:
		return p.AvailableVoice
	case ModeVideo:
		return p.AvailableVideo
	}
	return false
}

func (p *CounselorProfile) Modes() []Mode {
	var modes []Mode
	for _, m := range []Mode{ModeChat, ModeVoice, ModeVideo} {
		if p.Supports(m) {
			modes = append(modes, m)
		}
	}
	return modes
}

type AvailabilitySlot struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CounselorID uint             `gorm:"not null;uniqueIndex:idx_slot_counselor_range" json:"counselor_id"`
	Counselor   CounselorProfile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Start       time.Time        `gorm:"column:start_at;not null;index;uniqueIndex:idx_slot_counselor_range" json:"start"`
	End         time.Time        `gorm:"column:end_at;not null;uniqueIndex:idx_slot_counselor_range" json:"end"`
	IsBooked    bool             `gorm:"not null;default:false" json:"is_booked"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Duration - длительность слота
func (s *AvailabilitySlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

type Booking struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"index;not null" json:"user_id"`
	User           users.User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CounselorID    uint             `gorm:"index;not null" json:"counselor_id"`
	Counselor      CounselorProfile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"counselor,omitempty"`
	SlotID         uint             `gorm:"index;not null" json:"slot_id"` // активная запись на слот одна: см. config.Migrate
	Slot           AvailabilitySlot `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"slot,omitempty"`
	Mode           Mode             `gorm:"type:varchar(10);not null;default:'chat'" json:"mode"`
	Status         BookingStatus    `gorm:"type:varchar(12);not null;default:'pending';index" json:"status"`
	AllowAnonymous bool             `gorm:"default:false" json:"allow_anonymous"`
	Pseudonym      string           `gorm:"size:80" json:"pseudonym"`
	Notes          string           `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookingID uint      `gorm:"uniqueIndex;not null" json:"booking_id"`
	Booking   Booking   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
