package counseling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sisterhood-backend/logger"
	models "sisterhood-backend/models/counseling"
)

// SessionLeadTime - за сколько до начала слота можно войти в сессию
const SessionLeadTime = 15 * time.Minute

type BookingRequest struct {
	CounselorID    uint
	SlotID         uint
	Mode           models.Mode
	AllowAnonymous bool
	Pseudonym      string
	Notes          string
}

// CreateBooking проверяет консультанта, слот и формат, затем в одной транзакции
// занимает слот и сохраняет запись со статусом pending
func (e *Engine) CreateBooking(ctx context.Context, userID uint, req BookingRequest) (*models.Booking, error) {
	now := e.clock()
	var booking models.Booking

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.CounselorProfile
		if err := tx.First(&profile, req.CounselorID).Error; err != nil {
			return notFound(err, "counselor", req.CounselorID)
		}
		if !profile.Bookable() {
			return fmt.Errorf("%w: counselor %d", ErrIneligible, profile.ID)
		}

		var slot models.AvailabilitySlot
		if err := tx.First(&slot, req.SlotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: slot %d does not exist", ErrSlotUnavailable, req.SlotID)
			}
			return err
		}
		switch {
		case slot.CounselorID != profile.ID:
			return fmt.Errorf("%w: slot does not belong to the chosen counselor", ErrSlotUnavailable)
		case slot.IsBooked:
			return fmt.Errorf("%w: slot is already booked", ErrSlotUnavailable)
		case !slot.Start.After(now):
			return fmt.Errorf("%w: slot has already started", ErrSlotUnavailable)
		}

		if !profile.Supports(req.Mode) {
			return fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
		}

		if err := reserve(tx, slot.ID, now); err != nil {
			return err
		}

		booking = models.Booking{
			UserID:         userID,
			CounselorID:    profile.ID,
			SlotID:         slot.ID,
			Mode:           req.Mode,
			Status:         models.StatusPending,
			AllowAnonymous: req.AllowAnonymous,
			Pseudonym:      req.Pseudonym,
			Notes:          req.Notes,
		}
		if err := tx.Create(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: slot is already booked", ErrSlotUnavailable)
			}
			return err
		}
		slot.IsBooked = true
		booking.Slot = slot
		booking.Counselor = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"counselor_id": booking.CounselorID,
		"slot_id":      booking.SlotID,
	}).Info("booking created")
	return &booking, nil
}

// CancelBooking отменяет запись и освобождает слот. Повторная отмена - ErrConflict
func (e *Engine) CancelBooking(ctx context.Context, bookingID uint, actor Actor) (*models.Booking, error) {
	var booking models.Booking

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.UserID != actor.UserID && !actor.IsStaff {
			return fmt.Errorf("%w: only the booking owner can cancel it", ErrForbidden)
		}
		if booking.Status.Terminal() {
			return fmt.Errorf("%w: booking is already %s", ErrConflict, booking.Status)
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", booking.ID, []models.BookingStatus{models.StatusPending, models.StatusConfirmed}).
			Update("status", models.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: booking changed concurrently", ErrConflict)
		}
		if err := release(tx, booking.SlotID); err != nil {
			return err
		}
		booking.Status = models.StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ConfirmBooking - подтверждение записи консультантом или персоналом
func (e *Engine) ConfirmBooking(ctx context.Context, bookingID uint, actor Actor) (*models.Booking, error) {
	var booking models.Booking

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Counselor").First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.Counselor.UserID != actor.UserID && !actor.IsStaff {
			return fmt.Errorf("%w: only the counselor can confirm a booking", ErrForbidden)
		}
		if booking.Status != models.StatusPending {
			return fmt.Errorf("%w: booking is %s", ErrConflict, booking.Status)
		}
		return transition(tx, &booking, models.StatusPending, models.StatusConfirmed)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CompleteBooking - ручное завершение персоналом после начала сессии
func (e *Engine) CompleteBooking(ctx context.Context, bookingID uint, actor Actor) (*models.Booking, error) {
	if !actor.IsStaff {
		return nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}
	now := e.clock()
	var booking models.Booking

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Slot").First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.Status != models.StatusConfirmed {
			return fmt.Errorf("%w: booking is %s", ErrConflict, booking.Status)
		}
		if booking.Slot.Start.After(now) {
			return fmt.Errorf("%w: session has not started yet", ErrNotAllowed)
		}
		return transition(tx, &booking, models.StatusConfirmed, models.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func transition(tx *gorm.DB, booking *models.Booking, from, to models.BookingStatus) error {
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: booking changed concurrently", ErrConflict)
	}
	booking.Status = to
	return nil
}

// GetBooking доступна владельцу, консультанту и персоналу
func (e *Engine) GetBooking(ctx context.Context, bookingID uint, actor Actor) (*models.Booking, error) {
	var booking models.Booking
	if err := e.db.WithContext(ctx).Preload("Counselor").Preload("Slot").First(&booking, bookingID).Error; err != nil {
		return nil, notFound(err, "booking", bookingID)
	}
	if booking.UserID != actor.UserID && booking.Counselor.UserID != actor.UserID && !actor.IsStaff {
		return nil, fmt.Errorf("%w: booking %d", ErrForbidden, bookingID)
	}
	return &booking, nil
}

// ListBookings - свои записи, персоналу все
func (e *Engine) ListBookings(ctx context.Context, actor Actor) ([]models.Booking, error) {
	q := e.db.WithContext(ctx).Preload("Counselor").Preload("Slot").Order("created_at DESC, id DESC")
	if !actor.IsStaff {
		q = q.Where("user_id = ?", actor.UserID)
	}
	var bookings []models.Booking
	return bookings, q.Find(&bookings).Error
}

// CanStart - в сессию можно войти за 15 минут до начала и до конца слота
func CanStart(b *models.Booking, now time.Time) bool {
	return b.Status.Active() &&
		!now.Before(b.Slot.Start.Add(-SessionLeadTime)) &&
		!now.After(b.Slot.End)
}

type Session struct {
	Booking     *models.Booking `json:"booking"`
	CanStart    bool            `json:"can_start"`
	IsCounselor bool            `json:"is_counselor"`
}

// Session - состояние комнаты сессии для участника записи
func (e *Engine) Session(ctx context.Context, bookingID uint, actor Actor) (*Session, error) {
	booking, err := e.GetBooking(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	return &Session{
		Booking:     booking,
		CanStart:    CanStart(booking, e.clock()),
		IsCounselor: booking.Counselor.UserID == actor.UserID,
	}, nil
}
