package counseling

import (
	"testing"
	"time"

	"gorm.io/gorm"

	models "sisterhood-backend/models/counseling"
	"sisterhood-backend/models/users"
	"sisterhood-backend/testutil"
)

type fixture struct {
	t         *testing.T
	db        *gorm.DB
	engine    *Engine
	now       time.Time
	counselor models.CounselorProfile
	patient   users.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		db:  testutil.NewDB(t),
		now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.engine = NewEngine(f.db, opts...)

	f.patient = f.user("patient@example.com", users.RoleUser)
	f.counselor = f.profile("counselor@example.com", "LIC-1", func(p *models.CounselorProfile) {
		p.FullName = "Dr. Meera Iyer"
		p.Specialization = "Anxiety"
	})
	return f
}

func (f *fixture) user(email, role string) users.User {
	f.t.Helper()
	u := users.User{Name: email, Email: email, Role: role}
	if err := f.db.Create(&u).Error; err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) staff() users.User {
	f.t.Helper()
	u := f.user("staff@example.com", users.RoleUser)
	if err := f.db.Model(&u).Update("is_staff", true).Error; err != nil {
		f.t.Fatalf("mark staff: %v", err)
	}
	u.IsStaff = true
	return u
}

// profile создаёт проверенного консультанта с чатом и голосом
func (f *fixture) profile(email, license string, edit func(*models.CounselorProfile)) models.CounselorProfile {
	f.t.Helper()
	u := f.user(email, users.RoleCounselor)
	p := models.CounselorProfile{
		UserID:         u.ID,
		FullName:       email,
		LicenseNo:      license,
		Verified:       true,
		Eligible:       true,
		AvailableChat:  true,
		AvailableVoice: true,
	}
	if edit != nil {
		edit(&p)
	}
	if err := f.db.Create(&p).Error; err != nil {
		f.t.Fatalf("create profile: %v", err)
	}
	return p
}

// slot - часовой слот консультанта со сдвигом от текущего времени
func (f *fixture) slot(counselorID uint, offset time.Duration) models.AvailabilitySlot {
	f.t.Helper()
	s := models.AvailabilitySlot{
		CounselorID: counselorID,
		Start:       f.now.Add(offset),
		End:         f.now.Add(offset + time.Hour),
	}
	if err := f.db.Create(&s).Error; err != nil {
		f.t.Fatalf("create slot: %v", err)
	}
	return s
}

func (f *fixture) book(userID uint, slot models.AvailabilitySlot) *models.Booking {
	f.t.Helper()
	b, err := f.engine.CreateBooking(testCtx, userID, BookingRequest{
		CounselorID: slot.CounselorID,
		SlotID:      slot.ID,
		Mode:        models.ModeChat,
	})
	if err != nil {
		f.t.Fatalf("create booking: %v", err)
	}
	return b
}

func (f *fixture) reloadSlot(id uint) models.AvailabilitySlot {
	f.t.Helper()
	var s models.AvailabilitySlot
	if err := f.db.First(&s, id).Error; err != nil {
		f.t.Fatalf("reload slot: %v", err)
	}
	return s
}

func (f *fixture) reloadBooking(id uint) models.Booking {
	f.t.Helper()
	var b models.Booking
	if err := f.db.First(&b, id).Error; err != nil {
		f.t.Fatalf("reload booking: %v", err)
	}
	return b
}
