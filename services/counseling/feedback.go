package counseling

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sisterhood-backend/logger"
	models "sisterhood-backend/models/counseling"
)

// SubmitFeedback сохраняет или перезаписывает отзыв по записи, пересчитывает
// рейтинг консультанта и завершает подтверждённую прошедшую запись
func (e *Engine) SubmitFeedback(ctx context.Context, bookingID, userID uint, rating int, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	now := e.clock()
	var feedback models.Feedback
	var counselorRating float64

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Preload("Slot").First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.UserID != userID {
			return fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
		}
		if booking.Status == models.StatusCancelled {
			return fmt.Errorf("%w: booking was cancelled", ErrNotAllowed)
		}
		settled := booking.Status == models.StatusCompleted || booking.Status == models.StatusConfirmed
		if !settled && booking.Slot.Start.After(now) {
			return fmt.Errorf("%w: cannot submit feedback for future bookings", ErrNotAllowed)
		}

		upsert := models.Feedback{BookingID: booking.ID, Rating: rating, Comment: comment}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).Create(&upsert).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", booking.ID).First(&feedback).Error; err != nil {
			return err
		}

		var profile models.CounselorProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, booking.CounselorID).Error; err != nil {
			return notFound(err, "counselor", booking.CounselorID)
		}
		var avg sql.NullFloat64
		if err := tx.Model(&models.Feedback{}).
			Select("AVG(feedbacks.rating)").
			Joins("JOIN bookings ON bookings.id = feedbacks.booking_id").
			Where("bookings.counselor_id = ?", profile.ID).
			Row().Scan(&avg); err != nil {
			return err
		}
		if avg.Valid {
			counselorRating = roundRating(avg.Float64)
			if err := tx.Model(&profile).Update("rating", counselorRating).Error; err != nil {
				return err
			}
		}

		if booking.Status == models.StatusConfirmed && booking.Slot.Start.Before(now) {
			return transition(tx, &booking, models.StatusConfirmed, models.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.invalidateDirectory(ctx); err != nil {
		logger.Logger.WithError(err).Warn("counselor directory cache invalidation failed")
	}
	logger.Logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"rating":     counselorRating,
	}).Info("feedback recorded")
	return &feedback, nil
}

func roundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}
