package counseling

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	models "sisterhood-backend/models/counseling"
)

func TestCreateBookingStartsPendingAndReservesSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(f.counselor.ID, time.Hour)

	b, err := f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
		CounselorID:    f.counselor.ID,
		SlotID:         slot.ID,
		Mode:           models.ModeVoice,
		AllowAnonymous: true,
		Pseudonym:      "Blue Jay",
		Notes:          "first session",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", b.Status)
	}
	if !f.reloadSlot(slot.ID).IsBooked {
		t.Fatalf("expected slot to be booked")
	}
	stored := f.reloadBooking(b.ID)
	if stored.Pseudonym != "Blue Jay" || !stored.AllowAnonymous || stored.Mode != models.ModeVoice {
		t.Fatalf("unexpected stored booking: %+v", stored)
	}
}

func TestCreateBookingRollsBackSlotWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(f.counselor.ID, time.Hour)

	insertErr := errors.New("bookings insert failed")
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_booking_insert", func(db *gorm.DB) {
		if db.Statement.Table == "bookings" {
			db.AddError(insertErr)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
		CounselorID: f.counselor.ID,
		SlotID:      slot.ID,
		Mode:        models.ModeChat,
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if f.reloadSlot(slot.ID).IsBooked {
		t.Fatalf("expected slot reservation to be rolled back")
	}
	var count int64
	if err := f.db.Model(&models.Booking{}).Count(&count).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no bookings, got %d", count)
	}
}

func TestConcurrentReservationSingleWinner(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(f.counselor.ID, time.Hour)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
				CounselorID: f.counselor.ID,
				SlotID:      slot.ID,
				Mode:        models.ModeChat,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	for _, err := range failures {
		if !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("expected ErrSlotUnavailable, got %v", err)
		}
	}
	var count int64
	f.db.Model(&models.Booking{}).Where("slot_id = ?", slot.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one booking row, got %d", count)
	}
}

func TestCreateBookingPastSlotUnavailable(t *testing.T) {
	f := newFixture(t)
	free := f.slot(f.counselor.ID, -time.Hour)
	booked := f.slot(f.counselor.ID, -2*time.Hour)
	f.db.Model(&booked).Update("is_booked", true)

	for _, s := range []models.AvailabilitySlot{free, booked} {
		_, err := f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
			CounselorID: f.counselor.ID,
			SlotID:      s.ID,
			Mode:        models.ModeChat,
		})
		if !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("slot %d: expected ErrSlotUnavailable, got %v", s.ID, err)
		}
	}
}

func TestUnsupportedModeFailsBeforeSlotMutation(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(f.counselor.ID, time.Hour)

	_, err := f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
		CounselorID: f.counselor.ID,
		SlotID:      slot.ID,
		Mode:        models.ModeVideo,
	})
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
	if f.reloadSlot(slot.ID).IsBooked {
		t.Fatalf("expected slot to stay free")
	}
}

func TestCreateBookingChecks(t *testing.T) {
	f := newFixture(t)
	unverified := f.profile("new@example.com", "LIC-2", func(p *models.CounselorProfile) {
		p.Verified = false
	})
	ineligible := f.profile("ineligible@example.com", "LIC-3", func(p *models.CounselorProfile) {
		p.Eligible = false
	})
	mine := f.slot(f.counselor.ID, time.Hour)

	cases := []struct {
		name string
		req  BookingRequest
		want error
	}{
		{"missing counselor", BookingRequest{CounselorID: 999, SlotID: mine.ID, Mode: models.ModeChat}, ErrNotFound},
		{"unverified", BookingRequest{CounselorID: unverified.ID, SlotID: mine.ID, Mode: models.ModeChat}, ErrIneligible},
		{"ineligible", BookingRequest{CounselorID: ineligible.ID, SlotID: mine.ID, Mode: models.ModeChat}, ErrIneligible},
		{"missing slot", BookingRequest{CounselorID: f.counselor.ID, SlotID: 999, Mode: models.ModeChat}, ErrSlotUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateBooking(testCtx, f.patient.ID, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	other := f.profile("other@example.com", "LIC-4", nil)
	_, err := f.engine.CreateBooking(testCtx, f.patient.ID, BookingRequest{
		CounselorID: other.ID,
		SlotID:      mine.ID,
		Mode:        models.ModeChat,
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable for foreign slot, got %v", err)
	}
	if f.reloadSlot(mine.ID).IsBooked {
		t.Fatalf("expected slot to stay free after failed checks")
	}
}

func TestCancelBookingReleasesSlotOnce(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(f.counselor.ID, time.Hour)
	b := f.book(f.patient.ID, slot)

	cancelled, err := f.engine.CancelBooking(testCtx, b.ID, Actor{UserID: f.patient.ID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.StatusCancelled || f.reloadBooking(b.ID).Status != models.StatusCancelled {
		t.Fatalf("expected booking to be cancelled")
	}
	if f.reloadSlot(slot.ID).IsBooked {
		t.Fatalf("expected slot to be released")
	}

	// слот снова занят другим пользователем: повторная отмена не должна его освободить
	another := f.user("another@example.com", "user")
	rebooked := f.book(another.ID, f.reloadSlot(slot.ID))

	if _, err := f.engine.CancelBooking(testCtx, b.ID, Actor{UserID: f.patient.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second cancel, got %v", err)
	}
	if !f.reloadSlot(slot.ID).IsBooked {
		t.Fatalf("expected slot to remain booked by booking %d", rebooked.ID)
	}
}

func TestCancelBookingPermissions(t *testing.T) {
	f := newFixture(t)
	b := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	stranger := f.user("stranger@example.com", "user")

	if _, err := f.engine.CancelBooking(testCtx, b.ID, Actor{UserID: stranger.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.engine.CancelBooking(testCtx, 999, Actor{UserID: f.patient.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	staff := f.staff()
	if _, err := f.engine.CancelBooking(testCtx, b.ID, Actor{UserID: staff.ID, IsStaff: true}); err != nil {
		t.Fatalf("expected staff cancel to succeed, got %v", err)
	}
}

func TestConfirmAndCompleteTransitions(t *testing.T) {
	f := newFixture(t)
	b := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	counselor := Actor{UserID: f.counselor.UserID}

	if _, err := f.engine.ConfirmBooking(testCtx, b.ID, Actor{UserID: f.patient.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for patient confirm, got %v", err)
	}
	confirmed, err := f.engine.ConfirmBooking(testCtx, b.ID, counselor)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if _, err := f.engine.ConfirmBooking(testCtx, b.ID, counselor); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second confirm, got %v", err)
	}

	staff := Actor{UserID: f.staff().ID, IsStaff: true}
	if _, err := f.engine.CompleteBooking(testCtx, b.ID, counselor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-staff completion, got %v", err)
	}
	if _, err := f.engine.CompleteBooking(testCtx, b.ID, staff); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed before session start, got %v", err)
	}

	f.now = f.now.Add(2 * time.Hour)
	completed, err := f.engine.CompleteBooking(testCtx, b.ID, staff)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if _, err := f.engine.CancelBooking(testCtx, b.ID, Actor{UserID: f.patient.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict cancelling completed booking, got %v", err)
	}
}

func TestListAndGetBookingScope(t *testing.T) {
	f := newFixture(t)
	mine := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	other := f.user("other-patient@example.com", "user")
	f.book(other.ID, f.slot(f.counselor.ID, 2*time.Hour))

	list, err := f.engine.ListBookings(testCtx, Actor{UserID: f.patient.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("expected only own booking, got %d bookings", len(list))
	}

	all, err := f.engine.ListBookings(testCtx, Actor{UserID: f.staff().ID, IsStaff: true})
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected staff to see 2 bookings, got %d", len(all))
	}

	if _, err := f.engine.GetBooking(testCtx, mine.ID, Actor{UserID: other.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	got, err := f.engine.GetBooking(testCtx, mine.ID, Actor{UserID: f.counselor.UserID})
	if err != nil {
		t.Fatalf("counselor get: %v", err)
	}
	if got.Slot.ID != mine.SlotID {
		t.Fatalf("expected slot to be preloaded")
	}
}

func TestCanStartWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := &models.Booking{
		Status: models.StatusConfirmed,
		Slot:   models.AvailabilitySlot{Start: start, End: start.Add(time.Hour)},
	}

	cases := []struct {
		at   time.Time
		want bool
	}{
		{start.Add(-16 * time.Minute), false},
		{start.Add(-15 * time.Minute), true},
		{start.Add(30 * time.Minute), true},
		{start.Add(time.Hour), true},
		{start.Add(time.Hour + time.Second), false},
	}
	for _, tc := range cases {
		if got := CanStart(b, tc.at); got != tc.want {
			t.Fatalf("at %v: expected %v, got %v", tc.at, tc.want, got)
		}
	}

	b.Status = models.StatusCancelled
	if CanStart(b, start) {
		t.Fatalf("expected cancelled booking not to start")
	}
}
