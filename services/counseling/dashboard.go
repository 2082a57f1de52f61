package counseling

import (
	"context"
	"time"

	models "sisterhood-backend/models/counseling"
)

type PatientDashboard struct {
	Bookings []models.Booking `json:"bookings"`
	Upcoming []models.Booking `json:"upcoming_bookings"`
	Past     []models.Booking `json:"past_bookings"`
}

// PatientDashboard - записи пользователя: предстоящие и прошедшие
func (e *Engine) PatientDashboard(ctx context.Context, userID uint) (*PatientDashboard, error) {
	bookings, err := e.ListBookings(ctx, Actor{UserID: userID})
	if err != nil {
		return nil, err
	}
	now := e.clock()
	d := &PatientDashboard{
		Bookings: bookings,
		Upcoming: []models.Booking{},
		Past:     []models.Booking{},
	}
	for _, b := range bookings {
		if b.Status.Active() && !b.Slot.Start.Before(now) {
			d.Upcoming = append(d.Upcoming, b)
		}
		if b.Status == models.StatusCompleted || b.Slot.Start.Before(now) {
			d.Past = append(d.Past, b)
		}
	}
	return d, nil
}

type CounselorDashboard struct {
	Profile       *models.CounselorProfile  `json:"profile"`
	UpcomingSlots []models.AvailabilitySlot `json:"upcoming_slots"`
	Bookings      []models.Booking          `json:"bookings"`
	Pending       []models.Booking          `json:"pending_bookings"`
	Today         []models.Booking          `json:"today_bookings"`
}

// CounselorDashboard - ближайшие слоты, ожидающие подтверждения и сегодняшние записи
func (e *Engine) CounselorDashboard(ctx context.Context, userID uint) (*CounselorDashboard, error) {
	profile, err := e.CounselorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	db := e.db.WithContext(ctx)

	d := &CounselorDashboard{
		Profile: profile,
		Pending: []models.Booking{},
		Today:   []models.Booking{},
	}
	if err := db.Where("counselor_id = ? AND start_at >= ?", profile.ID, now).
		Order("start_at ASC").Find(&d.UpcomingSlots).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Slot").Where("counselor_id = ?", profile.ID).
		Order("created_at DESC, id DESC").Find(&d.Bookings).Error; err != nil {
		return nil, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	for _, b := range d.Bookings {
		if b.Status == models.StatusPending && !b.Slot.Start.Before(now) {
			d.Pending = append(d.Pending, b)
		}
		if b.Status.Active() && !b.Slot.Start.Before(dayStart) && b.Slot.Start.Before(dayEnd) {
			d.Today = append(d.Today, b)
		}
	}
	return d, nil
}
