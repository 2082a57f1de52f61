package counseling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	models "sisterhood-backend/models/counseling"
)

const MinSlotDuration = 30 * time.Minute

func validateRange(start, end, now time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if end.Sub(start) < MinSlotDuration {
		return fmt.Errorf("%w: slot must be at least 30 minutes long", ErrValidation)
	}
	if start.Before(now) {
		return fmt.Errorf("%w: cannot create slots in the past", ErrValidation)
	}
	return nil
}

// CreateSlot - новый свободный слот консультанта
func (e *Engine) CreateSlot(ctx context.Context, counselorID uint, start, end time.Time) (*models.AvailabilitySlot, error) {
	start, end = start.UTC(), end.UTC()
	if err := validateRange(start, end, e.clock()); err != nil {
		return nil, err
	}

	slot := models.AvailabilitySlot{CounselorID: counselorID, Start: start, End: end}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AvailabilitySlot{}).
			Where("counselor_id = ? AND start_at = ? AND end_at = ?", counselorID, start, end).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: slot already exists", ErrConflict)
		}
		return tx.Create(&slot).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: slot already exists", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListAvailable - свободные будущие слоты по возрастанию начала; counselorID == 0 - все
func (e *Engine) ListAvailable(ctx context.Context, counselorID uint) ([]models.AvailabilitySlot, error) {
	slots := []models.AvailabilitySlot{}
	q := e.db.WithContext(ctx).Where("is_booked = ? AND start_at >= ?", false, e.clock())
	if counselorID != 0 {
		q = q.Where("counselor_id = ?", counselorID)
	}
	err := q.Order("start_at ASC").Find(&slots).Error
	return slots, err
}

// ListSlots - все слоты, при counselorID != 0 только одного консультанта
func (e *Engine) ListSlots(ctx context.Context, counselorID uint) ([]models.AvailabilitySlot, error) {
	q := e.db.WithContext(ctx).Order("start_at ASC")
	if counselorID != 0 {
		q = q.Where("counselor_id = ?", counselorID)
	}
	var slots []models.AvailabilitySlot
	return slots, q.Find(&slots).Error
}

// Reserve атомарно занимает слот: только свободный и ещё не начавшийся
func (e *Engine) Reserve(ctx context.Context, slotID uint) error {
	return reserve(e.db.WithContext(ctx), slotID, e.clock())
}

// Release освобождает слот
func (e *Engine) Release(ctx context.Context, slotID uint) error {
	return release(e.db.WithContext(ctx), slotID)
}

func reserve(tx *gorm.DB, slotID uint, now time.Time) error {
	res := tx.Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ? AND start_at > ?", slotID, false, now).
		Update("is_booked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: slot %d", ErrSlotUnavailable, slotID)
	}
	return nil
}

func release(tx *gorm.DB, slotID uint) error {
	return tx.Model(&models.AvailabilitySlot{}).
		Where("id = ?", slotID).
		Update("is_booked", false).Error
}

// UpdateSlot - перенос свободного слота его владельцем
func (e *Engine) UpdateSlot(ctx context.Context, slotID, counselorID uint, start, end time.Time) (*models.AvailabilitySlot, error) {
	start, end = start.UTC(), end.UTC()
	if err := validateRange(start, end, e.clock()); err != nil {
		return nil, err
	}

	var slot models.AvailabilitySlot
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.ownedFreeSlot(tx, slotID, counselorID, &slot); err != nil {
			return err
		}
		res := tx.Model(&models.AvailabilitySlot{}).
			Where("id = ? AND is_booked = ?", slotID, false).
			Updates(map[string]interface{}{"start_at": start, "end_at": end})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: slot was booked meanwhile", ErrConflict)
		}
		slot.Start, slot.End = start, end
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: slot already exists", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteSlot - удаление свободного слота его владельцем
func (e *Engine) DeleteSlot(ctx context.Context, slotID, counselorID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.AvailabilitySlot
		if err := e.ownedFreeSlot(tx, slotID, counselorID, &slot); err != nil {
			return err
		}
		var bookings int64
		if err := tx.Model(&models.Booking{}).Where("slot_id = ?", slotID).Count(&bookings).Error; err != nil {
			return err
		}
		if bookings > 0 {
			return fmt.Errorf("%w: slot has booking history", ErrConflict)
		}
		return tx.Delete(&models.AvailabilitySlot{}, slotID).Error
	})
}

func (e *Engine) ownedFreeSlot(tx *gorm.DB, slotID, counselorID uint, slot *models.AvailabilitySlot) error {
	if err := tx.First(slot, slotID).Error; err != nil {
		return notFound(err, "slot", slotID)
	}
	if slot.CounselorID != counselorID {
		return fmt.Errorf("%w: slot belongs to another counselor", ErrForbidden)
	}
	if slot.IsBooked {
		return fmt.Errorf("%w: slot is booked", ErrConflict)
	}
	return nil
}
