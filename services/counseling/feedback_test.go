package counseling

import (
	"errors"
	"testing"
	"time"

	models "sisterhood-backend/models/counseling"
)

func TestSubmitFeedbackUpsertsSingleRecord(t *testing.T) {
	f := newFixture(t)
	b := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	f.now = f.now.Add(2 * time.Hour)

	if _, err := f.engine.SubmitFeedback(testCtx, b.ID, f.patient.ID, 3, "ok"); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	fb, err := f.engine.SubmitFeedback(testCtx, b.ID, f.patient.ID, 5, "much better")
	if err != nil {
		t.Fatalf("second feedback: %v", err)
	}
	if fb.Rating != 5 || fb.Comment != "much better" {
		t.Fatalf("expected latest values, got %+v", fb)
	}

	var rows []models.Feedback
	f.db.Where("booking_id = ?", b.ID).Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("expected one feedback row, got %d", len(rows))
	}
	if rows[0].Rating != 5 || rows[0].Comment != "much better" {
		t.Fatalf("expected stored latest values, got %+v", rows[0])
	}
}

func TestCounselorRatingIsRoundedMean(t *testing.T) {
	f := newFixture(t)
	var bookings []*models.Booking
	for i := 1; i <= 3; i++ {
		bookings = append(bookings, f.book(f.patient.ID, f.slot(f.counselor.ID, time.Duration(i)*time.Hour)))
	}
	f.now = f.now.Add(5 * time.Hour)

	for i, rating := range []int{5, 4, 4} {
		if _, err := f.engine.SubmitFeedback(testCtx, bookings[i].ID, f.patient.ID, rating, ""); err != nil {
			t.Fatalf("feedback %d: %v", i, err)
		}
	}
	assertRating(t, f, 4.33)

	if _, err := f.engine.SubmitFeedback(testCtx, bookings[0].ID, f.patient.ID, 1, "changed my mind"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	assertRating(t, f, 3)
}

func assertRating(t *testing.T, f *fixture, want float64) {
	t.Helper()
	var p models.CounselorProfile
	if err := f.db.First(&p, f.counselor.ID).Error; err != nil {
		t.Fatalf("reload counselor: %v", err)
	}
	if p.Rating == nil || *p.Rating != want {
		t.Fatalf("expected rating %.2f, got %v", want, p.Rating)
	}
}

func TestSubmitFeedbackRules(t *testing.T) {
	f := newFixture(t)
	future := f.book(f.patient.ID, f.slot(f.counselor.ID, 3*time.Hour))
	stranger := f.user("stranger@example.com", "user")

	if _, err := f.engine.SubmitFeedback(testCtx, future.ID, f.patient.ID, 4, ""); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for future pending booking, got %v", err)
	}
	if _, err := f.engine.SubmitFeedback(testCtx, future.ID, stranger.ID, 4, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	for _, rating := range []int{0, 6} {
		if _, err := f.engine.SubmitFeedback(testCtx, future.ID, f.patient.ID, rating, ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("rating %d: expected ErrValidation, got %v", rating, err)
		}
	}

	// подтверждённую запись можно оценить заранее, статус не меняется
	if _, err := f.engine.ConfirmBooking(testCtx, future.ID, Actor{UserID: f.counselor.UserID}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.engine.SubmitFeedback(testCtx, future.ID, f.patient.ID, 4, ""); err != nil {
		t.Fatalf("expected feedback on confirmed booking, got %v", err)
	}
	if got := f.reloadBooking(future.ID).Status; got != models.StatusConfirmed {
		t.Fatalf("expected status to stay confirmed, got %s", got)
	}

	cancelled := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	if _, err := f.engine.CancelBooking(testCtx, cancelled.ID, Actor{UserID: f.patient.ID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.engine.SubmitFeedback(testCtx, cancelled.ID, f.patient.ID, 4, ""); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for cancelled booking, got %v", err)
	}
}

func TestFeedbackCompletesPastConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	confirmed := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	pending := f.book(f.patient.ID, f.slot(f.counselor.ID, 2*time.Hour))
	if _, err := f.engine.ConfirmBooking(testCtx, confirmed.ID, Actor{UserID: f.counselor.UserID}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.now = f.now.Add(4 * time.Hour)

	for _, b := range []*models.Booking{confirmed, pending} {
		if _, err := f.engine.SubmitFeedback(testCtx, b.ID, f.patient.ID, 5, ""); err != nil {
			t.Fatalf("feedback %d: %v", b.ID, err)
		}
	}
	if got := f.reloadBooking(confirmed.ID).Status; got != models.StatusCompleted {
		t.Fatalf("expected confirmed booking to complete, got %s", got)
	}
	if got := f.reloadBooking(pending.ID).Status; got != models.StatusPending {
		t.Fatalf("expected pending booking to stay pending, got %s", got)
	}
}
